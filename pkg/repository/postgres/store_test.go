package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/todo/pkg/auth"
	pgstore "github.com/artem13815/todo/pkg/storage/postgres"
	"github.com/artem13815/todo/pkg/task"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(pgstore.New(mock, time.Second)), mock
}

func ptr[T any](v T) *T { return &v }

// anyArgs matches a statement with n bind parameters of any value.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

var taskCols = []string{"id", "user_id", "title", "description", "completed", "created_at", "updated_at", "category", "priority", "due_date", "order"}

func TestStore_UserAndTaskInOneSessionThenReadBack(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := "0b8f8a8e-1f5c-4d7e-9a55-6b1f3e2c4d10"

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(userID, "a@x.com", "A", "hash", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(userID, "T", pgxmock.AnyArg(), false, now, now, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	var created task.Task
	err := store.Within(ctx, func(ctx context.Context, users auth.UserRepository, tasks task.Repository) error {
		if err := users.Create(ctx, auth.User{ID: userID, Email: "a@x.com", Name: "A", HashedPassword: "hash", CreatedAt: now}); err != nil {
			return err
		}
		var err error
		created, err = tasks.Create(ctx, task.Task{UserID: userID, Title: "T", Priority: ptr(task.DefaultPriority), CreatedAt: now, UpdatedAt: now})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id = .+ AND user_id = `).
		WithArgs(int64(1), userID).
		WillReturnRows(pgxmock.NewRows(taskCols).
			AddRow(int64(1), userID, "T", nil, false, now, now, nil, ptr("medium"), nil, int32(0)))
	mock.ExpectCommit()

	var got task.Task
	err = store.WithTasks(ctx, func(ctx context.Context, repo task.Repository) error {
		var err error
		got, err = repo.GetForOwner(ctx, userID, 1)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "T", got.Title)
	assert.False(t, got.Completed)
	require.NotNil(t, got.Priority)
	assert.Equal(t, "medium", *got.Priority)
	assert.Equal(t, 0, got.Order)
	assert.Nil(t, got.Description)
	assert.Nil(t, got.DueDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TaskForUnknownOwnerRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(anyArgs(10)...).
		WillReturnError(&pgconn.PgError{Code: pgstore.CodeForeignKeyViolation, Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	err := store.WithTasks(context.Background(), func(ctx context.Context, repo task.Repository) error {
		_, err := repo.Create(ctx, task.Task{UserID: "missing", Title: "orphan"})
		return err
	})
	require.ErrorIs(t, err, task.ErrOwnerNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DuplicateEmailRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(anyArgs(5)...).
		WillReturnError(&pgconn.PgError{Code: pgstore.CodeUniqueViolation, ConstraintName: "ix_users_email"})
	mock.ExpectRollback()

	err := store.WithUsers(context.Background(), func(ctx context.Context, users auth.UserRepository) error {
		return users.Create(ctx, auth.User{ID: "u2", Email: "a@x.com", Name: "B", HashedPassword: "h"})
	})
	require.ErrorIs(t, err, auth.ErrUserAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Closed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	db := pgstore.New(mock, time.Second)
	mock.ExpectClose()
	db.Close()

	err = NewStore(db).WithUsers(context.Background(), func(context.Context, auth.UserRepository) error {
		t.Fatal("callback must not run on a closed store")
		return nil
	})
	require.ErrorIs(t, err, pgstore.ErrClosed)
}
