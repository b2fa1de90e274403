package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/database"
)

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) (*User, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed user repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const userColumns = "id, name, email, password_hash, role, created_at, updated_at"

// Create inserts u, assigning its ID and timestamps.
//
// Returns ErrEmailExists when the email is already taken.
func (r *SQLiteRepository) Create(ctx context.Context, u *User) error {
	u.ID = "usr-" + uuid.NewString()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role),
		database.FormatTime(u.CreatedAt), database.FormatTime(u.UpdatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrEmailExists, err)
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetByID returns the user with the given id, or ErrUserNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// List returns all users in creation order.
func (r *SQLiteRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// Update overwrites the mutable fields of the stored user with u and
// refreshes u from the stored row.
func (r *SQLiteRepository) Update(ctx context.Context, u *User) error {
	row := r.db.QueryRowContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, role = ?, updated_at = ?
		 WHERE id = ? RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, string(u.Role),
		database.FormatTime(time.Now()), u.ID,
	)
	updated, err := scanUser(row)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrEmailExists, err)
		}
		return err
	}
	*u = *updated
	return nil
}

// Delete removes the user and returns the removed record.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `DELETE FROM users WHERE id = ? RETURNING `+userColumns, id)
	return scanUser(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*User, error) {
	var u User
	var role, createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = Role(role)
	u.CreatedAt = database.ParseTime(createdAt)
	u.UpdatedAt = database.ParseTime(updatedAt)
	return &u, nil
}
