package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AdminUser is an operator account for the admin UI.
type AdminUser struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates a failed username/password check.
	// Deliberately indistinguishable from an unknown username.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserInactive indicates the account is disabled.
	ErrUserInactive = errors.New("user account is inactive")
)

// AdminUserRepository manages operator accounts.
type AdminUserRepository interface {
	Create(ctx context.Context, user *AdminUser) error
	GetByID(ctx context.Context, id uuid.UUID) (*AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*AdminUser, error)
}
