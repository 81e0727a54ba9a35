package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/artem13815/todo/api/http/presenter"
	"github.com/artem13815/todo/pkg/task"
)

type TaskHandler struct {
	useCase task.UseCase
}

func NewTaskHandler(useCase task.UseCase) *TaskHandler {
	return &TaskHandler{useCase: useCase}
}

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description"`
	Category    *string    `json:"category" validate:"omitempty,max=50"`
	Priority    *string    `json:"priority" validate:"omitempty,max=20"`
	DueDate     *time.Time `json:"due_date"`
}

// updateTaskRequest is a partial update: absent fields are kept, an explicit
// null clears description, category and due_date.
type updateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	Category    *string    `json:"category" validate:"omitempty,max=50"`
	Priority    *string    `json:"priority" validate:"omitempty,max=20"`
	DueDate     *time.Time `json:"due_date"`
	Order       *int       `json:"order" validate:"omitempty,min=0,max=2147483647"`
}

type reorderRequest struct {
	TaskIDs []int64 `json:"task_ids" validate:"required"`
}

// List returns the caller's tasks.
// @Summary List tasks
// @Tags    tasks
// @Produce json
// @Security BearerAuth
// @Param   status   query string false "all, active or completed"
// @Param   category query string false "exact category"
// @Param   priority query string false "exact priority"
// @Param   search   query string false "substring of title or description"
// @Param   limit    query int    false "page size, all tasks when absent"
// @Param   offset   query int    false "rows to skip"
// @Success 200 {array} presenter.TaskResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Router  /api/tasks [get]
func (h *TaskHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "Not authenticated")
	}
	// No limit unless the client asks for one.
	limit, offset := parseLimitOffset(c, 0)
	f := task.Filter{
		Status:   task.Status(strings.TrimSpace(c.Query("status"))),
		Category: strings.TrimSpace(c.Query("category")),
		Priority: strings.TrimSpace(c.Query("priority")),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	}
	tasks, err := h.useCase.List(c.UserContext(), userID, f)
	if err != nil {
		return taskError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, presenter.Tasks(tasks))
}

// Create adds a task for the caller.
// @Summary Create task
// @Tags    tasks
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param   input body createTaskRequest true "task"
// @Success 201 {object} presenter.TaskResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Router  /api/tasks [post]
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "Not authenticated")
	}
	var req createTaskRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}
	created, err := h.useCase.Create(c.UserContext(), task.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return taskError(c, err)
	}
	return presenter.JSON(c, http.StatusCreated, presenter.Task(created))
}

// Get returns one task.
// @Summary Get task
// @Tags    tasks
// @Produce json
// @Security BearerAuth
// @Param   id path int true "task id"
// @Success 200 {object} presenter.TaskResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /api/tasks/{id} [get]
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return nil
	}
	t, err := h.useCase.Get(c.UserContext(), userID, id)
	if err != nil {
		return taskError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, presenter.Task(t))
}

// Update applies a partial update.
// @Summary Update task
// @Tags    tasks
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param   id    path int               true "task id"
// @Param   input body updateTaskRequest true "fields to change"
// @Success 200 {object} presenter.TaskResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /api/tasks/{id} [put]
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return nil
	}
	var req updateTaskRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}
	var present map[string]json.RawMessage
	if err := c.App().Config().JSONDecoder(c.Body(), &present); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	isNull := func(key string) bool {
		raw, ok := present[key]
		return ok && strings.TrimSpace(string(raw)) == "null"
	}

	t, err := h.useCase.Update(c.UserContext(), userID, id, task.Patch{
		Title:            req.Title,
		Description:      req.Description,
		Completed:        req.Completed,
		Category:         req.Category,
		Priority:         req.Priority,
		DueDate:          req.DueDate,
		Order:            req.Order,
		ClearDescription: isNull("description"),
		ClearCategory:    isNull("category"),
		ClearDueDate:     isNull("due_date"),
	})
	if err != nil {
		return taskError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, presenter.Task(t))
}

// ToggleComplete flips the completed flag.
// @Summary Toggle completion
// @Tags    tasks
// @Produce json
// @Security BearerAuth
// @Param   id path int true "task id"
// @Success 200 {object} presenter.TaskResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /api/tasks/{id}/complete [patch]
func (h *TaskHandler) ToggleComplete(c *fiber.Ctx) error {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return nil
	}
	t, err := h.useCase.ToggleComplete(c.UserContext(), userID, id)
	if err != nil {
		return taskError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, presenter.Task(t))
}

// Reorder assigns each listed task its position as order.
// @Summary Reorder tasks
// @Tags    tasks
// @Accept  json
// @Produce json
// @Security BearerAuth
// @Param   input body reorderRequest true "task ids in display order"
// @Success 200 {object} map[string]string
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /api/tasks/reorder [put]
func (h *TaskHandler) Reorder(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "Not authenticated")
	}
	var req reorderRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, err.Error())
	}
	if err := h.useCase.Reorder(c.UserContext(), userID, req.TaskIDs); err != nil {
		return taskError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"message": "Tasks reordered successfully"})
}

// Delete removes a task.
// @Summary Delete task
// @Tags    tasks
// @Security BearerAuth
// @Param   id path int true "task id"
// @Success 204
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return nil
	}
	if err := h.useCase.Delete(c.UserContext(), userID, id); err != nil {
		return taskError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ownerAndID returns the caller and the :id route param. On false the error
// response has already been written.
func ownerAndID(c *fiber.Ctx) (string, int64, bool) {
	userID, ok := currentUser(c)
	if !ok {
		_ = presenter.Error(c, http.StatusUnauthorized, "Not authenticated")
		return "", 0, false
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = presenter.Error(c, http.StatusBadRequest, "invalid task id")
		return "", 0, false
	}
	return userID, int64(id), true
}

func taskError(c *fiber.Ctx, err error) error {
	var verr task.ErrValidation
	switch {
	case errors.Is(err, task.ErrNotFound):
		return presenter.Error(c, http.StatusNotFound, "Task not found")
	case errors.As(err, &verr):
		return presenter.Error(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, task.ErrOwnerNotFound):
		return presenter.Error(c, http.StatusUnauthorized, "User not found")
	}
	log.Errorw("task request failed", "path", c.Path(), "error", err)
	return presenter.Error(c, http.StatusInternalServerError, "internal error")
}
