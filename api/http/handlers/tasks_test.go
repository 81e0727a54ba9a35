package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/todo/pkg/task"
)

func newTaskApp(uc *fakeTasks) *fiber.App {
	h := NewTaskHandler(uc)
	app := fiber.New()
	g := app.Group("/tasks", asUser("u1"))
	g.Get("/", h.List)
	g.Post("/", h.Create)
	g.Put("/reorder", h.Reorder)
	g.Get("/:id", h.Get)
	g.Put("/:id", h.Update)
	g.Patch("/:id/complete", h.ToggleComplete)
	g.Delete("/:id", h.Delete)
	return app
}

func sampleTask() task.Task {
	p := "medium"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return task.Task{ID: 5, UserID: "u1", Title: "Buy milk", Priority: &p, CreatedAt: now, UpdatedAt: now}
}

func TestCreateTaskHandler(t *testing.T) {
	uc := &fakeTasks{}
	status, body, _ := do(t, newTaskApp(uc), http.MethodPost, "/tasks", `{"title":"Buy milk","category":"home","due_date":"2026-04-01T10:00:00Z"}`)

	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "u1", uc.created.UserID)
	assert.Equal(t, "home", *uc.created.Category)
	require.NotNil(t, uc.created.DueDate)
	assert.Equal(t, 2026, uc.created.DueDate.Year())
	assert.Nil(t, uc.created.Priority)
}

func TestCreateTaskHandler_Validation(t *testing.T) {
	status, body, _ := do(t, newTaskApp(&fakeTasks{}), http.MethodPost, "/tasks", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "title is required", body["detail"])
}

func TestListTasksHandler(t *testing.T) {
	uc := &fakeTasks{list: []task.Task{sampleTask()}}
	status, _, raw := do(t, newTaskApp(uc), http.MethodGet, "/tasks?status=active&category=home&search=milk&limit=5&offset=10", "")
	require.Equal(t, http.StatusOK, status)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Buy milk", got[0]["title"])
	assert.Equal(t, "medium", got[0]["priority"])
	assert.Contains(t, got[0], "due_date")

	assert.Equal(t, task.Filter{Status: task.StatusActive, Category: "home", Search: "milk", Limit: 5, Offset: 10}, uc.filter)
}

func TestListTasksHandler_NoLimitByDefault(t *testing.T) {
	uc := &fakeTasks{}
	status, _, _ := do(t, newTaskApp(uc), http.MethodGet, "/tasks?offset=3", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, task.Filter{Offset: 3}, uc.filter)
}

func TestListTasksHandler_EmptyIsArray(t *testing.T) {
	_, _, raw := do(t, newTaskApp(&fakeTasks{}), http.MethodGet, "/tasks", "")
	assert.JSONEq(t, `[]`, string(raw))
}

func TestListTasksHandler_BadStatus(t *testing.T) {
	uc := &fakeTasks{err: task.ErrValidation("status must be one of all, active, completed")}
	status, body, _ := do(t, newTaskApp(uc), http.MethodGet, "/tasks?status=archived", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["detail"], "status")
}

func TestGetTaskHandler(t *testing.T) {
	status, body, _ := do(t, newTaskApp(&fakeTasks{task: sampleTask()}), http.MethodGet, "/tasks/5", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(5), body["id"])

	status, body, _ = do(t, newTaskApp(&fakeTasks{err: task.ErrNotFound}), http.MethodGet, "/tasks/6", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Task not found", body["detail"])

	status, _, _ = do(t, newTaskApp(&fakeTasks{}), http.MethodGet, "/tasks/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateTaskHandler_PatchSemantics(t *testing.T) {
	uc := &fakeTasks{task: sampleTask()}
	status, _, _ := do(t, newTaskApp(uc), http.MethodPut, "/tasks/5", `{"title":"New","completed":true,"category":null}`)
	require.Equal(t, http.StatusOK, status)

	require.NotNil(t, uc.patch.Title)
	assert.Equal(t, "New", *uc.patch.Title)
	assert.True(t, *uc.patch.Completed)
	assert.True(t, uc.patch.ClearCategory)
	assert.False(t, uc.patch.ClearDescription)
	assert.False(t, uc.patch.ClearDueDate)
	assert.Nil(t, uc.patch.Priority)
}

func TestUpdateTaskHandler_OrderOutOfRange(t *testing.T) {
	uc := &fakeTasks{task: sampleTask()}
	status, body, _ := do(t, newTaskApp(uc), http.MethodPut, "/tasks/5", `{"order":3000000000}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "order must be at most 2147483647", body["detail"])
	assert.Nil(t, uc.patch.Order)

	status, _, _ = do(t, newTaskApp(uc), http.MethodPut, "/tasks/5", `{"order":-1}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestToggleCompleteHandler(t *testing.T) {
	status, body, _ := do(t, newTaskApp(&fakeTasks{task: sampleTask()}), http.MethodPatch, "/tasks/5/complete", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["completed"])
}

func TestReorderHandler(t *testing.T) {
	uc := &fakeTasks{}
	status, _, _ := do(t, newTaskApp(uc), http.MethodPut, "/tasks/reorder", `{"task_ids":[3,1,2]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []int64{3, 1, 2}, uc.order)

	status, _, _ = do(t, newTaskApp(&fakeTasks{}), http.MethodPut, "/tasks/reorder", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteTaskHandler(t *testing.T) {
	status, _, _ := do(t, newTaskApp(&fakeTasks{}), http.MethodDelete, "/tasks/5", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _, _ = do(t, newTaskApp(&fakeTasks{err: errors.New("conn reset")}), http.MethodDelete, "/tasks/5", "")
	assert.Equal(t, http.StatusInternalServerError, status)
}
