package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	pgstore "github.com/artem13815/todo/pkg/storage/postgres"
	"github.com/artem13815/todo/pkg/task"
)

// likeEscaper makes user input match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at, category, priority, due_date, "order"`

// TaskRepository implements task.Repository on top of a session.
type TaskRepository struct {
	s pgstore.Session
}

func NewTaskRepository(s pgstore.Session) *TaskRepository {
	return &TaskRepository{s: s}
}

func (r *TaskRepository) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.s.QueryRow(ctx, `
		INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at, category, priority, due_date, "order")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, t.UserID, t.Title, t.Description, t.Completed, t.CreatedAt, t.UpdatedAt,
		t.Category, t.Priority, t.DueDate, t.Order).Scan(&t.ID)
	if err != nil {
		return task.Task{}, translate("insert task", err)
	}
	return t, nil
}

func (r *TaskRepository) GetForOwner(ctx context.Context, ownerID string, id int64) (task.Task, error) {
	row := r.s.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("select task: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string, f task.Filter) ([]task.Task, error) {
	query, args := listQuery(ownerID, f)
	rows, err := r.s.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

// listQuery builds the filtered select; the placeholders are numbered in the
// order the conditions are appended.
func listQuery(ownerID string, f task.Filter) (string, []any) {
	var b strings.Builder
	args := []any{ownerID}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`)
	switch f.Status {
	case task.StatusActive:
		b.WriteString(` AND completed = FALSE`)
	case task.StatusCompleted:
		b.WriteString(` AND completed = TRUE`)
	}
	if f.Category != "" {
		b.WriteString(` AND category = ` + arg(f.Category))
	}
	if f.Priority != "" {
		b.WriteString(` AND priority = ` + arg(f.Priority))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + likeEscaper.Replace(s) + "%")
		b.WriteString(` AND (title ILIKE ` + p + ` OR description ILIKE ` + p + `)`)
	}
	b.WriteString(` ORDER BY "order", created_at DESC, id DESC`)
	if f.Limit > 0 {
		b.WriteString(` LIMIT ` + arg(f.Limit))
	}
	if f.Offset > 0 {
		b.WriteString(` OFFSET ` + arg(f.Offset))
	}
	return b.String(), args
}

func (r *TaskRepository) Update(ctx context.Context, t task.Task) error {
	tag, err := r.s.Exec(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, completed = $5, updated_at = $6,
			category = $7, priority = $8, due_date = $9, "order" = $10
		WHERE id = $1 AND user_id = $2
	`, t.ID, t.UserID, t.Title, t.Description, t.Completed, t.UpdatedAt,
		t.Category, t.Priority, t.DueDate, t.Order)
	if err != nil {
		return translate("update task", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) SetOrder(ctx context.Context, ownerID string, id int64, order int, updatedAt time.Time) error {
	tag, err := r.s.Exec(ctx, `
		UPDATE tasks SET "order" = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
	`, id, ownerID, order, updatedAt)
	if err != nil {
		return fmt.Errorf("reorder task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteForOwner(ctx context.Context, ownerID string, id int64) error {
	tag, err := r.s.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	var order int32
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed,
		&t.CreatedAt, &t.UpdatedAt, &t.Category, &t.Priority, &t.DueDate, &order); err != nil {
		return task.Task{}, err
	}
	t.Order = int(order)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	return t, nil
}

func translate(op string, err error) error {
	switch {
	case pgstore.IsForeignKeyViolation(err):
		return task.ErrOwnerNotFound
	case pgstore.IsCheckViolation(err):
		return task.ErrValidation(err.Error())
	}
	return fmt.Errorf("%s: %w", op, err)
}
