package device

import (
	"time"

	"github.com/fieldmesh/fieldmesh-core/internal/user"
	"github.com/fieldmesh/fieldmesh-core/internal/zone"
)

// Status is the operational state of an installed device.
type Status string

const (
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusOffline     Status = "offline"
)

// AllStatuses returns every valid status.
func AllStatuses() []Status {
	return []Status{StatusActive, StatusMaintenance, StatusOffline}
}

// Device is an installed piece of field hardware.
type Device struct {
	ID           string    `json:"id"`
	SerialNumber string    `json:"serial_number"`
	Model        string    `json:"model,omitempty"`
	OwnerID      string    `json:"owner_id"`
	ZoneID       string    `json:"zone_id"`
	InstalledAt  time.Time `json:"installed_at"`
	Status       Status    `json:"status"`
	Sensors      []string  `json:"sensors"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Populated by List and Get only. Nil when the reference dangles.
	Owner *user.User `json:"owner,omitempty"`
	Zone  *zone.Zone `json:"zone,omitempty"`
}

// CreateInput is the payload for creating a device.
// InstalledAt defaults to now and Status to active.
type CreateInput struct {
	SerialNumber string     `json:"serial_number"`
	Model        string     `json:"model,omitempty"`
	OwnerID      string     `json:"owner_id"`
	ZoneID       string     `json:"zone_id"`
	InstalledAt  *time.Time `json:"installed_at,omitempty"`
	Status       Status     `json:"status,omitempty"`
	Sensors      []string   `json:"sensors,omitempty"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	SerialNumber *string    `json:"serial_number,omitempty"`
	Model        *string    `json:"model,omitempty"`
	OwnerID      *string    `json:"owner_id,omitempty"`
	ZoneID       *string    `json:"zone_id,omitempty"`
	InstalledAt  *time.Time `json:"installed_at,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	Sensors      *[]string  `json:"sensors,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.SerialNumber == nil && p.Model == nil && p.OwnerID == nil && p.ZoneID == nil &&
		p.InstalledAt == nil && p.Status == nil && p.Sensors == nil
}
