// Package ingest turns MQTT messages from field gateways into readings.
//
// A gateway publishes one message per measurement:
//
//	topic:   fieldmesh/ingest/reading/{sensor_id}
//	payload: {"value": 21.5, "time": "2026-03-01T12:00:00Z"}
//
// time is optional and defaults to the moment of ingest. Every message goes
// through reading.Service.Create, so the sensor existence check applies
// exactly as for POST /api/readings. Rejected messages are logged and
// dropped; there is no dead-letter topic.
package ingest
