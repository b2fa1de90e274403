package zone

import (
	"context"
	"fmt"
	"strings"
)

// DeviceLookup reports whether any device is installed in a zone.
type DeviceLookup interface {
	ExistsByZone(ctx context.Context, zoneID string) (bool, error)
}

// Service applies the zone integrity rules on top of a Repository.
type Service struct {
	repo    Repository
	devices DeviceLookup
}

// NewService creates a zone Service.
func NewService(repo Repository, devices DeviceLookup) *Service {
	return &Service{repo: repo, devices: devices}
}

// List returns all zones.
func (s *Service) List(ctx context.Context) ([]Zone, error) {
	return s.repo.List(ctx)
}

// Get returns one zone or ErrZoneNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Zone, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new zone.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Zone, error) {
	z := &Zone{
		Name:        in.Name,
		Description: in.Description,
		IsActive:    true,
	}
	if in.IsActive != nil {
		z.IsActive = *in.IsActive
	}
	if strings.TrimSpace(z.Name) == "" {
		return nil, ErrNameRequired
	}

	if err := s.repo.Create(ctx, z); err != nil {
		return nil, err
	}
	return z, nil
}

// Update applies p and returns the stored result.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*Zone, error) {
	z, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return z, nil
	}

	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, ErrNameRequired
		}
		z.Name = *p.Name
	}
	if p.Description != nil {
		z.Description = *p.Description
	}
	if p.IsActive != nil {
		z.IsActive = *p.IsActive
	}

	if err := s.repo.Update(ctx, z); err != nil {
		return nil, err
	}
	return z, nil
}

// Delete removes the zone unless a device is still installed in it.
func (s *Service) Delete(ctx context.Context, id string) (*Zone, error) {
	inUse, err := s.devices.ExistsByZone(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking devices in zone %s: %w", id, err)
	}
	if inUse {
		return nil, ErrZoneHasDevices
	}
	return s.repo.Delete(ctx, id)
}
