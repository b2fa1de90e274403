package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database"
	"github.com/fieldmesh/fieldmesh-core/internal/user"
	"github.com/fieldmesh/fieldmesh-core/internal/zone"
)

// Repository defines persistence operations for devices.
//
// GetByID and List expand Owner and Zone. Create, Update and Delete
// return the bare row.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	GetByID(ctx context.Context, id string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
	Update(ctx context.Context, d *Device) error
	Delete(ctx context.Context, id string) (*Device, error)

	// ExistsByOwner and ExistsByZone back the user and zone delete rules.
	ExistsByOwner(ctx context.Context, ownerID string) (bool, error)
	ExistsByZone(ctx context.Context, zoneID string) (bool, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = "id, serial_number, model, owner_id, zone_id, installed_at, status, sensors, created_at, updated_at"

// expandedSelect joins each device to its owner and zone. Missing rows on
// either side come back as NULLs.
const expandedSelect = `SELECT
		d.id, d.serial_number, d.model, d.owner_id, d.zone_id, d.installed_at, d.status, d.sensors, d.created_at, d.updated_at,
		u.id, u.name, u.email, u.role, u.created_at, u.updated_at,
		z.id, z.name, z.description, z.is_active, z.created_at, z.updated_at
	FROM devices d
	LEFT JOIN users u ON u.id = d.owner_id
	LEFT JOIN zones z ON z.id = d.zone_id`

// Create inserts d, assigning its ID and timestamps.
//
// Returns ErrSerialExists when the serial number is taken.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	d.ID = "dev-" + uuid.NewString()
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	if d.Sensors == nil {
		d.Sensors = []string{}
	}

	sensorsJSON, err := json.Marshal(d.Sensors)
	if err != nil {
		return fmt.Errorf("marshalling sensors: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO devices (`+deviceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SerialNumber, database.NullString(d.Model), d.OwnerID, d.ZoneID,
		database.FormatTime(d.InstalledAt), string(d.Status), string(sensorsJSON),
		database.FormatTime(d.CreatedAt), database.FormatTime(d.UpdatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrSerialExists, err)
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// GetByID returns the device with owner and zone expanded, or ErrDeviceNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	return scanExpanded(r.db.QueryRowContext(ctx, expandedSelect+` WHERE d.id = ?`, id))
}

// List returns all devices with owner and zone expanded.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, expandedSelect+` ORDER BY d.created_at, d.id`)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	devices := make([]Device, 0)
	for rows.Next() {
		d, err := scanExpanded(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Update overwrites the mutable fields and refreshes d from the stored row.
// Owner and Zone are cleared.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	if d.Sensors == nil {
		d.Sensors = []string{}
	}
	sensorsJSON, err := json.Marshal(d.Sensors)
	if err != nil {
		return fmt.Errorf("marshalling sensors: %w", err)
	}

	updated, err := scanDevice(r.db.QueryRowContext(ctx,
		`UPDATE devices SET serial_number = ?, model = ?, owner_id = ?, zone_id = ?,
			installed_at = ?, status = ?, sensors = ?, updated_at = ?
		 WHERE id = ? RETURNING `+deviceColumns,
		d.SerialNumber, database.NullString(d.Model), d.OwnerID, d.ZoneID,
		database.FormatTime(d.InstalledAt), string(d.Status), string(sensorsJSON),
		database.FormatTime(time.Now()), d.ID,
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrSerialExists, err)
		}
		return err
	}
	*d = *updated
	return nil
}

// Delete removes the device and returns the removed row.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (*Device, error) {
	return scanDevice(r.db.QueryRowContext(ctx, `DELETE FROM devices WHERE id = ? RETURNING `+deviceColumns, id))
}

// ExistsByOwner reports whether any device has owner_id = ownerID.
func (r *SQLiteRepository) ExistsByOwner(ctx context.Context, ownerID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM devices WHERE owner_id = ?)`, ownerID)
}

// ExistsByZone reports whether any device has zone_id = zoneID.
func (r *SQLiteRepository) ExistsByZone(ctx context.Context, zoneID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM devices WHERE zone_id = ?)`, zoneID)
}

func (r *SQLiteRepository) exists(ctx context.Context, query, arg string) (bool, error) {
	var found int
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("querying devices: %w", err)
	}
	return found == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// deviceRow holds the raw column values of a devices row.
type deviceRow struct {
	id          string
	serial      string
	model       sql.NullString
	ownerID     string
	zoneID      string
	installedAt string
	status      string
	sensorsJSON string
	createdAt   string
	updatedAt   string
}

func (dr *deviceRow) dest() []any {
	return []any{
		&dr.id, &dr.serial, &dr.model, &dr.ownerID, &dr.zoneID,
		&dr.installedAt, &dr.status, &dr.sensorsJSON, &dr.createdAt, &dr.updatedAt,
	}
}

func (dr *deviceRow) device() (*Device, error) {
	d := &Device{
		ID:           dr.id,
		SerialNumber: dr.serial,
		Model:        dr.model.String,
		OwnerID:      dr.ownerID,
		ZoneID:       dr.zoneID,
		InstalledAt:  database.ParseTime(dr.installedAt),
		Status:       Status(dr.status),
		CreatedAt:    database.ParseTime(dr.createdAt),
		UpdatedAt:    database.ParseTime(dr.updatedAt),
	}
	if err := json.Unmarshal([]byte(dr.sensorsJSON), &d.Sensors); err != nil {
		return nil, fmt.Errorf("unmarshalling sensors of %s: %w", dr.id, err)
	}
	if d.Sensors == nil {
		d.Sensors = []string{}
	}
	return d, nil
}

func scanDevice(s scanner) (*Device, error) {
	var dr deviceRow
	if err := s.Scan(dr.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}
	return dr.device()
}

func scanExpanded(s scanner) (*Device, error) {
	var dr deviceRow
	var (
		uID, uName, uEmail, uRole, uCreated, uUpdated sql.NullString
		zID, zName, zDesc, zCreated, zUpdated         sql.NullString
		zActive                                       sql.NullInt64
	)

	dest := append(dr.dest(),
		&uID, &uName, &uEmail, &uRole, &uCreated, &uUpdated,
		&zID, &zName, &zDesc, &zActive, &zCreated, &zUpdated,
	)
	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}

	d, err := dr.device()
	if err != nil {
		return nil, err
	}
	if uID.Valid {
		d.Owner = &user.User{
			ID:        uID.String,
			Name:      uName.String,
			Email:     uEmail.String,
			Role:      user.Role(uRole.String),
			CreatedAt: database.ParseTime(uCreated.String),
			UpdatedAt: database.ParseTime(uUpdated.String),
		}
	}
	if zID.Valid {
		d.Zone = &zone.Zone{
			ID:          zID.String,
			Name:        zName.String,
			Description: zDesc.String,
			IsActive:    zActive.Int64 != 0,
			CreatedAt:   database.ParseTime(zCreated.String),
			UpdatedAt:   database.ParseTime(zUpdated.String),
		}
	}
	return d, nil
}
