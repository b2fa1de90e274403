package ingest

import "errors"

var (
	// ErrInvalidTopic is returned for a topic that names no sensor.
	ErrInvalidTopic = errors.New("ingest: topic does not name a sensor")

	// ErrInvalidPayload is returned when the payload is not a reading object.
	ErrInvalidPayload = errors.New("ingest: invalid reading payload")
)
