// Package zone manages the physical areas devices are installed in.
//
// A zone cannot be deleted while a device is installed in it.
package zone
