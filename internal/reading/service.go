package reading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/logging"
	"github.com/fieldmesh/fieldmesh-core/internal/sensor"
)

// SensorLookup resolves a sensor id. sensor.Service satisfies it.
type SensorLookup interface {
	Get(ctx context.Context, id string) (*sensor.Sensor, error)
}

// Recorder mirrors readings into a time-series store.
// influxdb.Client satisfies it. Writes are fire-and-forget.
type Recorder interface {
	WriteSensorReading(sensorID, sensorType, unit string, value float64, at time.Time)
}

// Service applies the reading integrity rules on top of a Repository.
type Service struct {
	repo    Repository
	sensors SensorLookup

	mu       sync.RWMutex
	recorder Recorder
	logger   *logging.Logger
}

// NewService creates a reading Service.
func NewService(repo Repository, sensors SensorLookup) *Service {
	return &Service{
		repo:    repo,
		sensors: sensors,
		logger:  logging.Default().With("component", "reading"),
	}
}

// SetRecorder attaches a time-series mirror. Pass nil to detach.
func (s *Service) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// SetLogger replaces the service logger.
func (s *Service) SetLogger(l *logging.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// List returns all readings with their sensor expanded.
func (s *Service) List(ctx context.Context) ([]Reading, error) {
	return s.repo.List(ctx)
}

// Get returns one reading without sensor expansion, or ErrReadingNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Reading, error) {
	return s.repo.GetByID(ctx, id)
}

// Create checks the sensor exists and stores the reading. Time defaults to
// the moment of the call.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Reading, error) {
	if in.Value == nil {
		return nil, ErrValueRequired
	}
	if err := checkValue(*in.Value); err != nil {
		return nil, err
	}

	sn, err := s.lookupSensor(ctx, in.SensorID)
	if err != nil {
		return nil, err
	}

	rd := &Reading{
		SensorID: in.SensorID,
		Value:    *in.Value,
		Time:     time.Now().UTC(),
	}
	if in.Time != nil {
		rd.Time = in.Time.UTC()
	}

	if err := s.repo.Create(ctx, rd); err != nil {
		return nil, err
	}

	s.mirror(rd, sn)
	return rd, nil
}

// Update applies p and returns the stored row. A changed sensor_id is
// checked against the sensor store.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*Reading, error) {
	rd, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return rd, nil
	}

	if p.SensorID != nil && *p.SensorID != rd.SensorID {
		if _, err := s.lookupSensor(ctx, *p.SensorID); err != nil {
			return nil, err
		}
		rd.SensorID = *p.SensorID
	}
	if p.Time != nil {
		rd.Time = p.Time.UTC()
	}
	if p.Value != nil {
		if err := checkValue(*p.Value); err != nil {
			return nil, err
		}
		rd.Value = *p.Value
	}

	if err := s.repo.Update(ctx, rd); err != nil {
		return nil, err
	}
	return rd, nil
}

// Delete removes the reading unconditionally.
func (s *Service) Delete(ctx context.Context, id string) (*Reading, error) {
	return s.repo.Delete(ctx, id)
}

func (s *Service) lookupSensor(ctx context.Context, id string) (*sensor.Sensor, error) {
	sn, err := s.sensors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sensor.ErrSensorNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrSensorNotFound, id)
		}
		return nil, fmt.Errorf("looking up sensor %s: %w", id, err)
	}
	return sn, nil
}

func (s *Service) mirror(rd *Reading, sn *sensor.Sensor) {
	s.mu.RLock()
	rec, logger := s.recorder, s.logger
	s.mu.RUnlock()

	if rec == nil {
		return
	}
	rec.WriteSensorReading(rd.SensorID, string(sn.Type), sn.Unit, rd.Value, rd.Time)
	logger.Debug("reading mirrored", "reading_id", rd.ID, "sensor_id", rd.SensorID)
}

func checkValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidValue
	}
	return nil
}
