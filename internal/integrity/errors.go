package integrity

import (
	"errors"
	"net/http"
)

// Kind classifies why an integrity rule refused an operation.
type Kind string

const (
	// KindNotFound means the requested id has no matching record.
	KindNotFound Kind = "not_found"

	// KindConflict means a delete is blocked by a live dependent reference.
	KindConflict Kind = "conflict"

	// KindMissingReference means a create or update names an entity that does not exist.
	KindMissingReference Kind = "missing_reference"

	// KindDuplicate means the store rejected a write on a uniqueness constraint.
	KindDuplicate Kind = "duplicate"

	// KindInvalid means the input itself is malformed or outside an enumeration.
	KindInvalid Kind = "invalid"
)

// Status returns the HTTP status code for the kind.
// Unknown kinds map to 500.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindDuplicate:
		return http.StatusConflict
	case KindMissingReference, KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure raised by an integrity rule or a repository.
//
// Package-level sentinels are *Error values. Wrap them with fmt.Errorf and
// %w to add detail; errors.Is and KindOf still see through the wrapping:
//
//	return fmt.Errorf("%w: %s", sensor.ErrInvalidType, t)
type Error struct {
	Kind    Kind
	Message string
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// KindOf returns the kind of the first Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// StatusOf returns the HTTP status for err: the status of its kind,
// or 500 when the chain carries no Error.
func StatusOf(err error) int {
	return KindOf(err).Status()
}
