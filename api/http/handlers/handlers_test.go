package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/todo/pkg/auth"
	"github.com/artem13815/todo/pkg/security/jwt"
	"github.com/artem13815/todo/pkg/task"
)

// asUser stands in for the JWT middleware.
func asUser(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id != "" {
			c.Locals(jwt.LocalUserID, id)
			c.Locals(jwt.LocalTokenID, "jti-"+id)
			c.Locals(jwt.LocalTokenExpiresAt, time.Now().Add(time.Hour))
		}
		return c.Next()
	}
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var obj map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &obj))
	}
	return resp.StatusCode, obj, raw
}

type fakeAuth struct {
	users     map[string]auth.User
	loggedOut []string
	err       error
}

func (f *fakeAuth) Register(_ context.Context, email, _, name string) (auth.AuthResult, error) {
	if f.err != nil {
		return auth.AuthResult{}, f.err
	}
	u := auth.User{ID: "u-" + email, Email: email, Name: name, CreatedAt: time.Now().UTC()}
	return auth.AuthResult{User: u, Token: auth.Token{Value: "tok", ID: "jti", ExpiresAt: time.Now().Add(time.Hour)}}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (auth.AuthResult, error) {
	if password != "secret123" {
		return auth.AuthResult{}, auth.ErrInvalidCredentials
	}
	return auth.AuthResult{User: auth.User{ID: "u1", Email: email}, Token: auth.Token{Value: "tok"}}, nil
}

func (f *fakeAuth) Me(_ context.Context, id string) (auth.User, error) {
	u, ok := f.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	return u, nil
}

func (f *fakeAuth) Logout(_ context.Context, tokenID string, _ time.Time) error {
	f.loggedOut = append(f.loggedOut, tokenID)
	return nil
}

// fakeTasks records the last call and replays canned results.
type fakeTasks struct {
	task    task.Task
	list    []task.Task
	err     error
	filter  task.Filter
	patch   task.Patch
	created task.Task
	order   []int64
}

func (f *fakeTasks) Create(_ context.Context, t task.Task) (task.Task, error) {
	f.created = t
	t.ID = 1
	return t, f.err
}

func (f *fakeTasks) Get(_ context.Context, owner string, id int64) (task.Task, error) {
	return f.task, f.err
}

func (f *fakeTasks) List(_ context.Context, owner string, flt task.Filter) ([]task.Task, error) {
	f.filter = flt
	return f.list, f.err
}

func (f *fakeTasks) Update(_ context.Context, owner string, id int64, p task.Patch) (task.Task, error) {
	f.patch = p
	return f.task, f.err
}

func (f *fakeTasks) ToggleComplete(_ context.Context, owner string, id int64) (task.Task, error) {
	t := f.task
	t.Completed = !t.Completed
	return t, f.err
}

func (f *fakeTasks) Reorder(_ context.Context, owner string, ids []int64) error {
	f.order = ids
	return f.err
}

func (f *fakeTasks) Delete(_ context.Context, owner string, id int64) error {
	return f.err
}
