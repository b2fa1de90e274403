package sensor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database"
)

// Repository defines persistence operations for sensors.
type Repository interface {
	Create(ctx context.Context, s *Sensor) error
	GetByID(ctx context.Context, id string) (*Sensor, error)
	List(ctx context.Context) ([]Sensor, error)
	Update(ctx context.Context, s *Sensor) error
	Delete(ctx context.Context, id string) (*Sensor, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed sensor repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// sensorColumns is the select list for every sensor query.
const sensorColumns = "id, type, unit, model, location, is_active, created_at, updated_at"

// Create inserts s, assigning its ID and timestamps.
func (r *SQLiteRepository) Create(ctx context.Context, s *Sensor) error {
	s.ID = "sen-" + uuid.NewString()
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sensors (`+sensorColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Type), s.Unit, database.NullString(s.Model), database.NullString(s.Location),
		database.BoolToInt(s.IsActive), database.FormatTime(s.CreatedAt), database.FormatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting sensor: %w", err)
	}
	return nil
}

// GetByID returns the sensor with the given id, or ErrSensorNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Sensor, error) {
	return scanSensor(r.db.QueryRowContext(ctx, `SELECT `+sensorColumns+` FROM sensors WHERE id = ?`, id))
}

// List returns all sensors in creation order.
func (r *SQLiteRepository) List(ctx context.Context) ([]Sensor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sensorColumns+` FROM sensors ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing sensors: %w", err)
	}
	defer rows.Close()

	sensors := make([]Sensor, 0)
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensors: %w", err)
	}
	return sensors, nil
}

// Update overwrites the mutable fields and refreshes s from the stored row.
func (r *SQLiteRepository) Update(ctx context.Context, s *Sensor) error {
	updated, err := scanSensor(r.db.QueryRowContext(ctx,
		`UPDATE sensors SET type = ?, unit = ?, model = ?, location = ?, is_active = ?, updated_at = ?
		 WHERE id = ? RETURNING `+sensorColumns,
		string(s.Type), s.Unit, database.NullString(s.Model), database.NullString(s.Location),
		database.BoolToInt(s.IsActive), database.FormatTime(time.Now()), s.ID,
	))
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

// Delete removes the sensor and returns the removed record.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (*Sensor, error) {
	return scanSensor(r.db.QueryRowContext(ctx, `DELETE FROM sensors WHERE id = ? RETURNING `+sensorColumns, id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSensor(s scanner) (*Sensor, error) {
	var out Sensor
	var typ, createdAt, updatedAt string
	var model, location sql.NullString
	var isActive int

	if err := s.Scan(&out.ID, &typ, &out.Unit, &model, &location, &isActive, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("scanning sensor: %w", err)
	}

	out.Type = Type(typ)
	out.Model = model.String
	out.Location = location.String
	out.IsActive = isActive != 0
	out.CreatedAt = database.ParseTime(createdAt)
	out.UpdatedAt = database.ParseTime(updatedAt)
	return &out, nil
}
