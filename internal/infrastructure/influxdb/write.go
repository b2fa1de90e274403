package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// readingMeasurement is the InfluxDB measurement every reading is written to.
const readingMeasurement = "sensor_readings"

// WriteSensorReading queues one sensor reading for the next batch.
// It is a no-op when the client is not connected.
//
// Example:
//
//	client.WriteSensorReading("sen-1f0c…", "temperature", "C", 21.5, time.Now())
func (c *Client) WriteSensorReading(sensorID, sensorType, unit string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(readingPoint(sensorID, sensorType, unit, value, at))
}

// readingPoint builds the point for a reading. Sensor id, type and unit are
// tags; the value is the only field.
func readingPoint(sensorID, sensorType, unit string, value float64, at time.Time) *write.Point {
	return write.NewPoint(
		readingMeasurement,
		map[string]string{
			"sensor_id": sensorID,
			"type":      sensorType,
			"unit":      unit,
		},
		map[string]interface{}{
			"value": value,
		},
		at,
	)
}
