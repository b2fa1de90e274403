// Package sensor manages measurement sensors.
//
// Sensors are created without cross-entity checks. A sensor cannot be
// deleted while readings reference it.
package sensor
