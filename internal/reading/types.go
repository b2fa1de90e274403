package reading

import (
	"time"

	"github.com/fieldmesh/fieldmesh-core/internal/sensor"
)

// Reading is one measured value from a sensor.
type Reading struct {
	ID       string    `json:"id"`
	SensorID string    `json:"sensor_id"`
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`

	// Populated by List only. Nil when the sensor no longer exists.
	Sensor *sensor.Sensor `json:"sensor,omitempty"`
}

// CreateInput is the payload for creating a reading.
// Value is a pointer so that a missing value can be told apart from 0.
type CreateInput struct {
	SensorID string     `json:"sensor_id"`
	Time     *time.Time `json:"time,omitempty"`
	Value    *float64   `json:"value"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	SensorID *string    `json:"sensor_id,omitempty"`
	Time     *time.Time `json:"time,omitempty"`
	Value    *float64   `json:"value,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.SensorID == nil && p.Time == nil && p.Value == nil
}
