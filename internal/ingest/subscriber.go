package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/logging"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/mqtt"
	"github.com/fieldmesh/fieldmesh-core/internal/reading"
)

// handleTimeout bounds the store work done for a single message.
const handleTimeout = 5 * time.Second

// MQTTSubscriber is the part of mqtt.Client the subscriber needs.
type MQTTSubscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// ReadingCreator creates readings under the reading integrity rules.
// reading.Service satisfies it.
type ReadingCreator interface {
	Create(ctx context.Context, in reading.CreateInput) (*reading.Reading, error)
}

// Payload is the message body published by gateways.
type Payload struct {
	Value *float64   `json:"value"`
	Time  *time.Time `json:"time,omitempty"`
}

// Subscriber consumes fieldmesh/ingest/reading/+ and creates readings.
type Subscriber struct {
	bus      MQTTSubscriber
	readings ReadingCreator
	qos      byte
	logger   *logging.Logger

	mu        sync.RWMutex
	onCreated func(*reading.Reading)
}

// NewSubscriber creates a Subscriber. Nothing is subscribed until Start.
func NewSubscriber(bus MQTTSubscriber, readings ReadingCreator, qos byte, logger *logging.Logger) *Subscriber {
	if logger == nil {
		logger = logging.Default()
	}
	return &Subscriber{
		bus:      bus,
		readings: readings,
		qos:      qos,
		logger:   logger.With("component", "ingest"),
	}
}

// OnCreated registers a callback run after each stored reading, used to
// fan ingested readings out as change events.
func (s *Subscriber) OnCreated(fn func(*reading.Reading)) {
	s.mu.Lock()
	s.onCreated = fn
	s.mu.Unlock()
}

// Start subscribes to the ingest topic.
func (s *Subscriber) Start() error {
	topic := mqtt.Topics{}.AllIngestReadings()
	if err := s.bus.Subscribe(topic, s.qos, s.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	s.logger.Info("reading ingest started", "topic", topic)
	return nil
}

// Stop unsubscribes from the ingest topic.
func (s *Subscriber) Stop() error {
	return s.bus.Unsubscribe(mqtt.Topics{}.AllIngestReadings())
}

// HandleMessage decodes one gateway message and creates the reading.
// Integrity refusals (unknown sensor, missing value) are returned so the
// mqtt client logs them; nothing is retried.
func (s *Subscriber) HandleMessage(topic string, payload []byte) error {
	sensorID, ok := mqtt.SensorFromIngestTopic(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}

	in, err := decodePayload(payload)
	if err != nil {
		return err
	}
	in.SensorID = sensorID

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	rd, err := s.readings.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("ingesting reading for sensor %s: %w", sensorID, err)
	}

	s.logger.Debug("reading ingested", "reading_id", rd.ID, "sensor_id", sensorID)

	s.mu.RLock()
	fn := s.onCreated
	s.mu.RUnlock()
	if fn != nil {
		fn(rd)
	}
	return nil
}

func decodePayload(payload []byte) (reading.CreateInput, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return reading.CreateInput{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return reading.CreateInput{Value: p.Value, Time: p.Time}, nil
}
