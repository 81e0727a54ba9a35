package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/artem13815/todo/pkg/auth"
	pgstore "github.com/artem13815/todo/pkg/storage/postgres"
)

// UserRepository implements auth.UserRepository on top of a session.
type UserRepository struct {
	s pgstore.Session
}

func NewUserRepository(s pgstore.Session) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) Create(ctx context.Context, user auth.User) error {
	_, err := r.s.Exec(ctx, `
		INSERT INTO users (id, email, name, hashed_password, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Email, user.Name, user.HashedPassword, user.CreatedAt)
	if err != nil {
		if pgstore.IsUniqueViolation(err) {
			return auth.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	return r.getOne(ctx, `
		SELECT id, email, name, hashed_password, created_at
		FROM users WHERE email = $1
	`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (auth.User, error) {
	return r.getOne(ctx, `
		SELECT id, email, name, hashed_password, created_at
		FROM users WHERE id = $1
	`, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (auth.User, error) {
	var user auth.User
	var createdAt time.Time
	err := r.s.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Email, &user.Name, &user.HashedPassword, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, auth.ErrNotFound
		}
		return auth.User{}, fmt.Errorf("select user: %w", err)
	}
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
