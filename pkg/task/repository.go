package task

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("task not found")
	// ErrOwnerNotFound means the referenced user does not exist.
	ErrOwnerNotFound = errors.New("task owner does not exist")
)

// ErrValidation is returned for input the store would reject.
type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }

// Repository persists tasks. Every lookup is scoped to the owning user; a
// task that belongs to someone else is reported as ErrNotFound.
type Repository interface {
	Create(ctx context.Context, t Task) (Task, error)
	GetForOwner(ctx context.Context, ownerID string, id int64) (Task, error)
	ListByOwner(ctx context.Context, ownerID string, f Filter) ([]Task, error)
	Update(ctx context.Context, t Task) error
	SetOrder(ctx context.Context, ownerID string, id int64, order int, updatedAt time.Time) error
	DeleteForOwner(ctx context.Context, ownerID string, id int64) error
}

// Store runs fn in a unit of work: it commits when fn returns nil and rolls
// back otherwise.
type Store interface {
	WithTasks(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
