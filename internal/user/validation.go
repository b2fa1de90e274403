package user

import (
	"fmt"
	"strings"
)

// validate checks the fields required on every stored user. The password
// is optional and not checked here.
func validate(u *User) error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmailRequired
	}
	if !IsValidRole(u.Role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, u.Role)
	}
	return nil
}
