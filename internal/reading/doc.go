// Package reading stores time-stamped sensor measurements.
//
// A reading must name an existing sensor when it is created, and again when
// an update changes its sensor_id. List expands the sensor; Get returns the
// bare row.
//
// Created readings are optionally mirrored to a time-series Recorder. Mirror
// failures never fail the create.
package reading
