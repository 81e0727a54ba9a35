package presenter

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/todo/pkg/auth"
	"github.com/artem13815/todo/pkg/task"
)

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func Error(c *fiber.Ctx, status int, detail string) error {
	return JSON(c, status, ErrorResponse{Detail: detail})
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func User(u auth.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

func Token(res auth.AuthResult) TokenResponse {
	return TokenResponse{
		AccessToken: res.Token.Value,
		TokenType:   "bearer",
		ExpiresAt:   res.Token.ExpiresAt,
		User:        User(res.User),
	}
}

type TaskResponse struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Category    *string    `json:"category"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Order       int        `json:"order"`
}

func Task(t task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Category:    t.Category,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Order:       t.Order,
	}
}

func Tasks(ts []task.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, Task(t))
	}
	return out
}
