package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldmesh/fieldmesh-core/internal/user"
	"github.com/fieldmesh/fieldmesh-core/internal/zone"
)

// OwnerLookup resolves a user id. user.Service satisfies it.
type OwnerLookup interface {
	Get(ctx context.Context, id string) (*user.User, error)
}

// ZoneLookup resolves a zone id. zone.Service satisfies it.
type ZoneLookup interface {
	Get(ctx context.Context, id string) (*zone.Zone, error)
}

// Service applies the device integrity rules on top of a Repository.
type Service struct {
	repo   Repository
	owners OwnerLookup
	zones  ZoneLookup
}

// NewService creates a device Service.
func NewService(repo Repository, owners OwnerLookup, zones ZoneLookup) *Service {
	return &Service{repo: repo, owners: owners, zones: zones}
}

// List returns all devices with owner and zone expanded.
func (s *Service) List(ctx context.Context) ([]Device, error) {
	return s.repo.List(ctx)
}

// Get returns one device with owner and zone expanded, or ErrDeviceNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Device, error) {
	return s.repo.GetByID(ctx, id)
}

// Create checks that the owner and then the zone exist, and stores the
// device. The first failing lookup wins; the zone is not consulted when the
// owner is missing.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Device, error) {
	d := &Device{
		SerialNumber: in.SerialNumber,
		Model:        in.Model,
		OwnerID:      in.OwnerID,
		ZoneID:       in.ZoneID,
		Status:       in.Status,
		Sensors:      in.Sensors,
	}
	if d.Status == "" {
		d.Status = StatusActive
	}
	if in.InstalledAt != nil {
		d.InstalledAt = in.InstalledAt.UTC()
	} else {
		d.InstalledAt = time.Now().UTC()
	}
	if err := validate(d); err != nil {
		return nil, err
	}

	if err := s.checkOwner(ctx, d.OwnerID); err != nil {
		return nil, err
	}
	if err := s.checkZone(ctx, d.ZoneID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update applies p and returns the stored row. A changed owner_id or
// zone_id is checked the same way as on Create, owner first.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*Device, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Owner, d.Zone = nil, nil
	if p.IsEmpty() {
		return d, nil
	}

	if p.OwnerID != nil && *p.OwnerID != d.OwnerID {
		if err := s.checkOwner(ctx, *p.OwnerID); err != nil {
			return nil, err
		}
		d.OwnerID = *p.OwnerID
	}
	if p.ZoneID != nil && *p.ZoneID != d.ZoneID {
		if err := s.checkZone(ctx, *p.ZoneID); err != nil {
			return nil, err
		}
		d.ZoneID = *p.ZoneID
	}
	if p.SerialNumber != nil {
		d.SerialNumber = *p.SerialNumber
	}
	if p.Model != nil {
		d.Model = *p.Model
	}
	if p.InstalledAt != nil {
		d.InstalledAt = p.InstalledAt.UTC()
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Sensors != nil {
		d.Sensors = *p.Sensors
	}
	if err := validate(d); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes the device unconditionally and returns the removed row.
func (s *Service) Delete(ctx context.Context, id string) (*Device, error) {
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkOwner(ctx context.Context, ownerID string) error {
	if _, err := s.owners.Get(ctx, ownerID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return fmt.Errorf("%w: %q", ErrOwnerNotFound, ownerID)
		}
		return fmt.Errorf("looking up owner %s: %w", ownerID, err)
	}
	return nil
}

func (s *Service) checkZone(ctx context.Context, zoneID string) error {
	if _, err := s.zones.Get(ctx, zoneID); err != nil {
		if errors.Is(err, zone.ErrZoneNotFound) {
			return fmt.Errorf("%w: %q", ErrZoneNotFound, zoneID)
		}
		return fmt.Errorf("looking up zone %s: %w", zoneID, err)
	}
	return nil
}
