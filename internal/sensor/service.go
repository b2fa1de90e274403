package sensor

import (
	"context"
	"fmt"
)

// ReadingLookup reports whether any reading references a sensor.
// The reading repository satisfies it.
type ReadingLookup interface {
	ExistsBySensor(ctx context.Context, sensorID string) (bool, error)
}

// Service applies the sensor integrity rules on top of a Repository.
type Service struct {
	repo     Repository
	readings ReadingLookup
}

// NewService creates a sensor Service.
func NewService(repo Repository, readings ReadingLookup) *Service {
	return &Service{repo: repo, readings: readings}
}

// List returns all sensors.
func (s *Service) List(ctx context.Context) ([]Sensor, error) {
	return s.repo.List(ctx)
}

// Get returns one sensor or ErrSensorNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Sensor, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and stores the sensor.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sensor, error) {
	sn := &Sensor{
		Type:     in.Type,
		Unit:     in.Unit,
		Model:    in.Model,
		Location: in.Location,
		IsActive: true,
	}
	if in.IsActive != nil {
		sn.IsActive = *in.IsActive
	}
	if err := validate(sn); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, sn); err != nil {
		return nil, err
	}
	return sn, nil
}

// Update applies p and returns the stored result.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*Sensor, error) {
	sn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return sn, nil
	}

	if p.Type != nil {
		sn.Type = *p.Type
	}
	if p.Unit != nil {
		sn.Unit = *p.Unit
	}
	if p.Model != nil {
		sn.Model = *p.Model
	}
	if p.Location != nil {
		sn.Location = *p.Location
	}
	if p.IsActive != nil {
		sn.IsActive = *p.IsActive
	}
	if err := validate(sn); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sn); err != nil {
		return nil, err
	}
	return sn, nil
}

// Delete removes the sensor unless readings still reference it.
func (s *Service) Delete(ctx context.Context, id string) (*Sensor, error) {
	has, err := s.readings.ExistsBySensor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking readings for sensor %s: %w", id, err)
	}
	if has {
		return nil, ErrSensorHasReadings
	}
	return s.repo.Delete(ctx, id)
}
