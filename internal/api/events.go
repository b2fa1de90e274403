package api

// Change event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event describes one successful mutation of an entity.
type Event struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id"`
	Data   any    `json:"data"`
}

// Channel returns the WebSocket channel name, e.g. "device.created".
func (e Event) Channel() string {
	return e.Entity + "." + e.Action
}

// PublishEvent broadcasts a change event to WebSocket subscribers and, when
// configured, to MQTT. Delivery failures are logged and never fail the
// mutation that caused the event.
func (s *Server) PublishEvent(entity, action, id string, data any) {
	ev := Event{Entity: entity, Action: action, ID: id, Data: data}

	s.hub.Broadcast(ev.Channel(), ev)
	s.metrics.events.WithLabelValues(entity, action).Inc()

	if s.mqtt == nil {
		return
	}
	if err := s.mqtt.PublishEvent(entity, action, ev); err != nil {
		s.logger.Warn("change event not published to MQTT",
			"entity", entity,
			"action", action,
			"id", id,
			"error", err,
		)
	}
}
