package zone

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database"
)

// Repository defines persistence operations for zones.
type Repository interface {
	Create(ctx context.Context, z *Zone) error
	GetByID(ctx context.Context, id string) (*Zone, error)
	List(ctx context.Context) ([]Zone, error)
	Update(ctx context.Context, z *Zone) error
	Delete(ctx context.Context, id string) (*Zone, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed zone repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const zoneColumns = "id, name, description, is_active, created_at, updated_at"

// Create inserts z, assigning its ID and timestamps.
func (r *SQLiteRepository) Create(ctx context.Context, z *Zone) error {
	z.ID = "zone-" + uuid.NewString()
	now := time.Now().UTC()
	z.CreatedAt, z.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO zones (`+zoneColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		z.ID, z.Name, database.NullString(z.Description), database.BoolToInt(z.IsActive),
		database.FormatTime(z.CreatedAt), database.FormatTime(z.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting zone: %w", err)
	}
	return nil
}

// GetByID returns the zone with the given id, or ErrZoneNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Zone, error) {
	return scanZone(r.db.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM zones WHERE id = ?`, id))
}

// List returns all zones in creation order.
func (r *SQLiteRepository) List(ctx context.Context) ([]Zone, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+zoneColumns+` FROM zones ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	defer rows.Close()

	zones := make([]Zone, 0)
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zones: %w", err)
	}
	return zones, nil
}

// Update overwrites the mutable fields and refreshes z from the stored row.
func (r *SQLiteRepository) Update(ctx context.Context, z *Zone) error {
	updated, err := scanZone(r.db.QueryRowContext(ctx,
		`UPDATE zones SET name = ?, description = ?, is_active = ?, updated_at = ?
		 WHERE id = ? RETURNING `+zoneColumns,
		z.Name, database.NullString(z.Description), database.BoolToInt(z.IsActive),
		database.FormatTime(time.Now()), z.ID,
	))
	if err != nil {
		return err
	}
	*z = *updated
	return nil
}

// Delete removes the zone and returns the removed record.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (*Zone, error) {
	return scanZone(r.db.QueryRowContext(ctx, `DELETE FROM zones WHERE id = ? RETURNING `+zoneColumns, id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanZone(s scanner) (*Zone, error) {
	var z Zone
	var description sql.NullString
	var isActive int
	var createdAt, updatedAt string

	if err := s.Scan(&z.ID, &z.Name, &description, &isActive, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrZoneNotFound
		}
		return nil, fmt.Errorf("scanning zone: %w", err)
	}

	z.Description = description.String
	z.IsActive = isActive != 0
	z.CreatedAt = database.ParseTime(createdAt)
	z.UpdatedAt = database.ParseTime(updatedAt)
	return &z, nil
}
