package device

import (
	"fmt"
	"strings"
)

// validStatuses is a pre-computed set for O(1) status validation.
var validStatuses = func() map[Status]struct{} {
	m := make(map[Status]struct{}, len(AllStatuses()))
	for _, s := range AllStatuses() {
		m[s] = struct{}{}
	}
	return m
}()

// IsValidStatus reports whether s is a known device status.
func IsValidStatus(s Status) bool {
	_, ok := validStatuses[s]
	return ok
}

// validate checks the device's own fields. References are checked by the
// Service against the user and zone stores.
func validate(d *Device) error {
	if strings.TrimSpace(d.SerialNumber) == "" {
		return ErrSerialRequired
	}
	if !IsValidStatus(d.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	return nil
}
