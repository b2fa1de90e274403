package device

import "github.com/fieldmesh/fieldmesh-core/internal/integrity"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrOwnerNotFound) {
//	    // the owner_id did not resolve
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = integrity.New(integrity.KindNotFound, "device not found")

	// ErrSerialExists is returned when the serial number is already registered.
	ErrSerialExists = integrity.New(integrity.KindDuplicate, "serial number already exists")

	// ErrOwnerNotFound is returned when owner_id names no existing user.
	ErrOwnerNotFound = integrity.New(integrity.KindMissingReference, "owner not found")

	// ErrZoneNotFound is returned when zone_id names no existing zone.
	ErrZoneNotFound = integrity.New(integrity.KindMissingReference, "zone not found")

	ErrSerialRequired = integrity.New(integrity.KindInvalid, "serial_number is required")
	ErrInvalidStatus  = integrity.New(integrity.KindInvalid, "invalid device status")
)
