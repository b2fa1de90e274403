package sensor

import "github.com/fieldmesh/fieldmesh-core/internal/integrity"

var (
	// ErrSensorNotFound is returned when no sensor has the requested id.
	ErrSensorNotFound = integrity.New(integrity.KindNotFound, "sensor not found")

	// ErrSensorHasReadings is returned when deleting a sensor that has readings.
	ErrSensorHasReadings = integrity.New(integrity.KindConflict, "sensor has recorded readings")

	ErrInvalidType  = integrity.New(integrity.KindInvalid, "invalid sensor type")
	ErrUnitRequired = integrity.New(integrity.KindInvalid, "unit is required")
)
