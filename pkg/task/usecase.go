package task

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Column limits, in characters.
const (
	MaxTitleLen    = 200
	MaxCategoryLen = 50
	MaxPriorityLen = 20
)

// UseCase covers the task operations exposed to route handlers.
type UseCase interface {
	Create(ctx context.Context, t Task) (Task, error)
	Get(ctx context.Context, ownerID string, id int64) (Task, error)
	List(ctx context.Context, ownerID string, f Filter) ([]Task, error)
	Update(ctx context.Context, ownerID string, id int64, p Patch) (Task, error)
	ToggleComplete(ctx context.Context, ownerID string, id int64) (Task, error)
	Reorder(ctx context.Context, ownerID string, ids []int64) error
	Delete(ctx context.Context, ownerID string, id int64) error
}

type service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) UseCase {
	return &service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func validate(t *Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return ErrValidation("title is required")
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLen {
		return ErrValidation(fmt.Sprintf("title must be at most %d characters", MaxTitleLen))
	}
	if t.Category != nil && utf8.RuneCountInString(*t.Category) > MaxCategoryLen {
		return ErrValidation(fmt.Sprintf("category must be at most %d characters", MaxCategoryLen))
	}
	if t.Priority != nil && utf8.RuneCountInString(*t.Priority) > MaxPriorityLen {
		return ErrValidation(fmt.Sprintf("priority must be at most %d characters", MaxPriorityLen))
	}
	// order is an int4 column.
	if t.Order < 0 || t.Order > math.MaxInt32 {
		return ErrValidation(fmt.Sprintf("order must be between 0 and %d", math.MaxInt32))
	}
	return nil
}

func (s *service) Create(ctx context.Context, t Task) (Task, error) {
	if t.UserID == "" {
		return Task{}, ErrOwnerNotFound
	}
	if t.Priority == nil || strings.TrimSpace(*t.Priority) == "" {
		p := DefaultPriority
		t.Priority = &p
	}
	if err := validate(&t); err != nil {
		return Task{}, err
	}
	now := s.now()
	t.ID = 0
	t.CreatedAt = now
	t.UpdatedAt = now

	var created Task
	err := s.store.WithTasks(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		created, err = repo.Create(ctx, t)
		return err
	})
	return created, err
}

func (s *service) Get(ctx context.Context, ownerID string, id int64) (Task, error) {
	var t Task
	err := s.store.WithTasks(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		t, err = repo.GetForOwner(ctx, ownerID, id)
		return err
	})
	return t, err
}

func (s *service) List(ctx context.Context, ownerID string, f Filter) ([]Task, error) {
	switch f.Status {
	case "", StatusAll, StatusActive, StatusCompleted:
	default:
		return nil, ErrValidation("status must be one of all, active, completed")
	}
	var out []Task
	err := s.store.WithTasks(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		out, err = repo.ListByOwner(ctx, ownerID, f)
		return err
	})
	return out, err
}

// Update applies p to the task and stamps UpdatedAt. The schema has no
// trigger for updated_at, so every mutation path sets it here.
func (s *service) Update(ctx context.Context, ownerID string, id int64, p Patch) (Task, error) {
	return s.mutate(ctx, ownerID, id, func(t *Task) error {
		p.Apply(t)
		return validate(t)
	})
}

func (s *service) ToggleComplete(ctx context.Context, ownerID string, id int64) (Task, error) {
	return s.mutate(ctx, ownerID, id, func(t *Task) error {
		t.Completed = !t.Completed
		return nil
	})
}

func (s *service) mutate(ctx context.Context, ownerID string, id int64, change func(*Task) error) (Task, error) {
	var t Task
	err := s.store.WithTasks(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		t, err = repo.GetForOwner(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := change(&t); err != nil {
			return err
		}
		t.UpdatedAt = s.now()
		return repo.Update(ctx, t)
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// Reorder sets each task's order to its index in ids. Either every task is
// moved or, if any id is unknown to the owner, none is.
func (s *service) Reorder(ctx context.Context, ownerID string, ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return ErrValidation(fmt.Sprintf("task %d listed twice", id))
		}
		seen[id] = struct{}{}
	}
	now := s.now()
	return s.store.WithTasks(ctx, func(ctx context.Context, repo Repository) error {
		for i, id := range ids {
			if err := repo.SetOrder(ctx, ownerID, id, i, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) Delete(ctx context.Context, ownerID string, id int64) error {
	return s.store.WithTasks(ctx, func(ctx context.Context, repo Repository) error {
		return repo.DeleteForOwner(ctx, ownerID, id)
	})
}
