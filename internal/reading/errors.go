package reading

import "github.com/fieldmesh/fieldmesh-core/internal/integrity"

var (
	// ErrReadingNotFound is returned when no reading has the requested id.
	ErrReadingNotFound = integrity.New(integrity.KindNotFound, "reading not found")

	// ErrSensorNotFound is returned when sensor_id names no existing sensor.
	ErrSensorNotFound = integrity.New(integrity.KindMissingReference, "sensor not found")

	ErrValueRequired = integrity.New(integrity.KindInvalid, "value is required")
	ErrInvalidValue  = integrity.New(integrity.KindInvalid, "value must be a finite number")
)
