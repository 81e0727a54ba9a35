package postgres

import (
	"context"

	"github.com/artem13815/todo/pkg/auth"
	pgstore "github.com/artem13815/todo/pkg/storage/postgres"
	"github.com/artem13815/todo/pkg/task"
)

// Store hands out repositories bound to a single session, so everything a
// use case does inside one callback commits or rolls back together.
type Store struct {
	db *pgstore.DB
}

func NewStore(db *pgstore.DB) *Store {
	return &Store{db: db}
}

// WithUsers implements auth.Store.
func (s *Store) WithUsers(ctx context.Context, fn func(ctx context.Context, users auth.UserRepository) error) error {
	return s.db.WithSession(ctx, func(ctx context.Context, sess pgstore.Session) error {
		return fn(ctx, NewUserRepository(sess))
	})
}

// WithTasks implements task.Store.
func (s *Store) WithTasks(ctx context.Context, fn func(ctx context.Context, repo task.Repository) error) error {
	return s.db.WithSession(ctx, func(ctx context.Context, sess pgstore.Session) error {
		return fn(ctx, NewTaskRepository(sess))
	})
}

// Within runs fn with both repositories on the same session.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, users auth.UserRepository, tasks task.Repository) error) error {
	return s.db.WithSession(ctx, func(ctx context.Context, sess pgstore.Session) error {
		return fn(ctx, NewUserRepository(sess), NewTaskRepository(sess))
	})
}

var (
	_ auth.Store = (*Store)(nil)
	_ task.Store = (*Store)(nil)
)
