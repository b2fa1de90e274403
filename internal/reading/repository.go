package reading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database"
	"github.com/fieldmesh/fieldmesh-core/internal/sensor"
)

// Repository defines persistence operations for readings.
type Repository interface {
	Create(ctx context.Context, r *Reading) error
	GetByID(ctx context.Context, id string) (*Reading, error)
	List(ctx context.Context) ([]Reading, error)
	Update(ctx context.Context, r *Reading) error
	Delete(ctx context.Context, id string) (*Reading, error)

	// ExistsBySensor backs the sensor delete rule.
	ExistsBySensor(ctx context.Context, sensorID string) (bool, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed reading repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const readingColumns = "id, sensor_id, time, value"

// Create inserts r, assigning its ID. r.Time must already be set.
func (r *SQLiteRepository) Create(ctx context.Context, rd *Reading) error {
	rd.ID = "rdg-" + uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO readings (`+readingColumns+`) VALUES (?, ?, ?, ?)`,
		rd.ID, rd.SensorID, database.FormatTime(rd.Time), rd.Value,
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}
	return nil
}

// GetByID returns the unexpanded reading, or ErrReadingNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Reading, error) {
	return scanReading(r.db.QueryRowContext(ctx, `SELECT `+readingColumns+` FROM readings WHERE id = ?`, id))
}

// List returns all readings, oldest first, each with its sensor expanded.
func (r *SQLiteRepository) List(ctx context.Context) ([]Reading, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
			r.id, r.sensor_id, r.time, r.value,
			s.id, s.type, s.unit, s.model, s.location, s.is_active, s.created_at, s.updated_at
		FROM readings r
		LEFT JOIN sensors s ON s.id = r.sensor_id
		ORDER BY r.time, r.id`)
	if err != nil {
		return nil, fmt.Errorf("listing readings: %w", err)
	}
	defer rows.Close()

	readings := make([]Reading, 0)
	for rows.Next() {
		var rd Reading
		var at string
		var (
			sID, sType, sUnit, sModel, sLocation, sCreated, sUpdated sql.NullString
			sActive                                                  sql.NullInt64
		)
		if err := rows.Scan(&rd.ID, &rd.SensorID, &at, &rd.Value,
			&sID, &sType, &sUnit, &sModel, &sLocation, &sActive, &sCreated, &sUpdated,
		); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		rd.Time = database.ParseTime(at)
		if sID.Valid {
			rd.Sensor = &sensor.Sensor{
				ID:        sID.String,
				Type:      sensor.Type(sType.String),
				Unit:      sUnit.String,
				Model:     sModel.String,
				Location:  sLocation.String,
				IsActive:  sActive.Int64 != 0,
				CreatedAt: database.ParseTime(sCreated.String),
				UpdatedAt: database.ParseTime(sUpdated.String),
			}
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return readings, nil
}

// Update overwrites the reading and refreshes rd from the stored row.
func (r *SQLiteRepository) Update(ctx context.Context, rd *Reading) error {
	updated, err := scanReading(r.db.QueryRowContext(ctx,
		`UPDATE readings SET sensor_id = ?, time = ?, value = ? WHERE id = ? RETURNING `+readingColumns,
		rd.SensorID, database.FormatTime(rd.Time), rd.Value, rd.ID,
	))
	if err != nil {
		return err
	}
	*rd = *updated
	return nil
}

// Delete removes the reading and returns the removed row.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (*Reading, error) {
	return scanReading(r.db.QueryRowContext(ctx, `DELETE FROM readings WHERE id = ? RETURNING `+readingColumns, id))
}

// ExistsBySensor reports whether any reading has sensor_id = sensorID.
func (r *SQLiteRepository) ExistsBySensor(ctx context.Context, sensorID string) (bool, error) {
	var found int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM readings WHERE sensor_id = ?)`, sensorID,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("querying readings: %w", err)
	}
	return found == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(s scanner) (*Reading, error) {
	var rd Reading
	var at string
	if err := s.Scan(&rd.ID, &rd.SensorID, &at, &rd.Value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReadingNotFound
		}
		return nil, fmt.Errorf("scanning reading: %w", err)
	}
	rd.Time = database.ParseTime(at)
	return &rd, nil
}
