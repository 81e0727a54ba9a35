package auth

import (
	"context"
	"errors"
)

// Common errors used by repository/use cases
var (
	ErrNotFound           = errors.New("not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserRepository abstracts persistence concerns from the domain layer.
// An instance is bound to one unit of work and is only valid inside the
// Store callback that produced it.
type UserRepository interface {
	Create(ctx context.Context, user User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

// Store runs fn in a unit of work: it commits when fn returns nil and rolls
// back otherwise.
type Store interface {
	WithUsers(ctx context.Context, fn func(ctx context.Context, users UserRepository) error) error
}
