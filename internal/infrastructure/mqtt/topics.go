package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the FieldMesh topic tree.
//
//	fieldmesh/system/status                      retained online/offline
//	fieldmesh/core/event/{entity}/{action}       entity change events
//	fieldmesh/ingest/reading/{sensor_id}         inbound sensor readings
const (
	TopicPrefix       = "fieldmesh"
	TopicPrefixCore   = "fieldmesh/core"
	TopicPrefixSystem = "fieldmesh/system"
	TopicPrefixIngest = "fieldmesh/ingest"
)

// Topics provides builders for FieldMesh MQTT topics.
//
//	topic := mqtt.Topics{}.EntityEvent("device", "created")
//	// Returns: "fieldmesh/core/event/device/created"
type Topics struct{}

// SystemStatus returns the retained status topic used for LWT.
//
// Example: fieldmesh/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// EntityEvent returns the topic for a change event on an entity collection.
//
// Example: fieldmesh/core/event/zone/deleted
func (Topics) EntityEvent(entity, action string) string {
	return fmt.Sprintf("%s/event/%s/%s", TopicPrefixCore, entity, action)
}

// IngestReading returns the topic a field gateway publishes a sensor's
// readings to.
//
// Example: fieldmesh/ingest/reading/sen-0f3c...
func (Topics) IngestReading(sensorID string) string {
	return fmt.Sprintf("%s/reading/%s", TopicPrefixIngest, sensorID)
}

// AllEntityEvents matches every entity change event.
//
// Pattern: fieldmesh/core/event/+/+
func (Topics) AllEntityEvents() string {
	return TopicPrefixCore + "/event/+/+"
}

// AllIngestReadings matches readings for every sensor.
//
// Pattern: fieldmesh/ingest/reading/+
func (Topics) AllIngestReadings() string {
	return TopicPrefixIngest + "/reading/+"
}

// SensorFromIngestTopic extracts the sensor id from a concrete ingest
// reading topic. It reports false for any other topic.
func SensorFromIngestTopic(topic string) (string, bool) {
	prefix := TopicPrefixIngest + "/reading/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.ContainsAny(id, "/+#") {
		return "", false
	}
	return id, true
}
