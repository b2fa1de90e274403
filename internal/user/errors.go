package user

import "github.com/fieldmesh/fieldmesh-core/internal/integrity"

var (
	// ErrUserNotFound is returned when no user has the requested id.
	ErrUserNotFound = integrity.New(integrity.KindNotFound, "user not found")

	// ErrEmailExists is returned when the store rejects a duplicate email.
	ErrEmailExists = integrity.New(integrity.KindDuplicate, "email already exists")

	// ErrUserHasDevices is returned when deleting a user that still owns a device.
	ErrUserHasDevices = integrity.New(integrity.KindConflict, "user has associated devices")

	ErrNameRequired  = integrity.New(integrity.KindInvalid, "name is required")
	ErrEmailRequired = integrity.New(integrity.KindInvalid, "email is required")
	ErrInvalidRole   = integrity.New(integrity.KindInvalid, "invalid role")
)
