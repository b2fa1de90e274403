// Package device manages installed field devices.
//
// A device references an owning user and the zone it is installed in.
// Both references are checked when a device is created, owner first, and
// again on update when the patch changes them. The store does not enforce
// them, so a device can outlive its owner or zone if those are removed
// concurrently. Reads expand the references with a LEFT JOIN; a dangling
// reference simply yields no sub-document.
//
// Deleting a device never touches the sensors listed on it.
package device
