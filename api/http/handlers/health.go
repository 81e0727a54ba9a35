package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/artem13815/todo/api/http/presenter"
	"github.com/artem13815/todo/pkg/health"
)

const readyTimeout = 2 * time.Second

type HealthHandler struct {
	readiness health.ReadinessUseCase
	started   time.Time
}

func NewHealthHandler(readiness health.ReadinessUseCase) *HealthHandler {
	return &HealthHandler{readiness: readiness, started: time.Now()}
}

type livenessResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Health answers as long as the process serves requests.
// @Summary Liveness
// @Tags    health
// @Produce json
// @Success 200 {object} livenessResponse
// @Router  /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return presenter.JSON(c, http.StatusOK, livenessResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Ready reports each backing store. Any failed check turns the answer into a 503.
// @Summary Readiness
// @Tags    health
// @Produce json
// @Success 200 {object} health.Report
// @Failure 503 {object} health.Report
// @Router  /ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
	defer cancel()

	r := h.readiness.Check(ctx)
	if !r.Ready() {
		log.Warnw("readiness check failed", "checks", r.Checks)
		return presenter.JSON(c, http.StatusServiceUnavailable, r)
	}
	return presenter.JSON(c, http.StatusOK, r)
}
