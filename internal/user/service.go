package user

import (
	"context"
	"fmt"
)

// DeviceLookup reports whether any device is owned by a user.
// The device repository satisfies it.
type DeviceLookup interface {
	ExistsByOwner(ctx context.Context, ownerID string) (bool, error)
}

// Service applies the user integrity rules on top of a Repository.
type Service struct {
	repo    Repository
	devices DeviceLookup
}

// NewService creates a user Service.
func NewService(repo Repository, devices DeviceLookup) *Service {
	return &Service{repo: repo, devices: devices}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one user or ErrUserNotFound.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// hashPassword is swapped in tests to observe hashing.
var hashPassword = HashPassword

// Create validates in, hashes the password when one is given and stores
// the user. Email uniqueness is left to the store.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	if in.Role == "" {
		in.Role = RoleViewer
	}

	u := &User{
		Name:  in.Name,
		Email: in.Email,
		Role:  in.Role,
	}
	if err := validate(u); err != nil {
		return nil, err
	}

	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		u.PasswordHash = hash
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies p to the user and returns the stored result.
// An empty patch returns the current record unchanged.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return u, nil
	}

	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if err := validate(u); err != nil {
		return nil, err
	}
	// An empty password clears the stored hash.
	if p.Password != nil {
		u.PasswordHash = ""
		if *p.Password != "" {
			hash, err := hashPassword(*p.Password)
			if err != nil {
				return nil, fmt.Errorf("hashing password: %w", err)
			}
			u.PasswordHash = hash
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the user unless a device still names it as owner.
// Returns the removed record.
func (s *Service) Delete(ctx context.Context, id string) (*User, error) {
	owns, err := s.devices.ExistsByOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("checking devices owned by %s: %w", id, err)
	}
	if owns {
		return nil, ErrUserHasDevices
	}
	return s.repo.Delete(ctx, id)
}
