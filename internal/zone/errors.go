package zone

import "github.com/fieldmesh/fieldmesh-core/internal/integrity"

var (
	// ErrZoneNotFound is returned when no zone has the requested id.
	ErrZoneNotFound = integrity.New(integrity.KindNotFound, "zone not found")

	// ErrZoneHasDevices is returned when deleting a zone with installed devices.
	ErrZoneHasDevices = integrity.New(integrity.KindConflict, "zone has associated devices")

	ErrNameRequired = integrity.New(integrity.KindInvalid, "name is required")
)
