package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/todo/api/http/handlers"
)

// Routes groups everything Register needs to wire the HTTP surface.
type Routes struct {
	Auth   *handlers.AuthHandler
	Tasks  *handlers.TaskHandler
	Health *handlers.HealthHandler
	// RequireAuth validates the bearer token on protected routes.
	RequireAuth fiber.Handler
	// AuthLimit throttles the credential endpoints. Optional.
	AuthLimit fiber.Handler
}

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, r Routes) {
	// Liveness and readiness for orchestrators and monitoring
	app.Get("/health", r.Health.Health)
	app.Get("/ready", r.Health.Ready)

	api := app.Group("/api")

	a := api.Group("/auth")
	credentials := []fiber.Handler{}
	if r.AuthLimit != nil {
		credentials = append(credentials, r.AuthLimit)
	}
	a.Post("/register", append(credentials, r.Auth.Register)...)
	a.Post("/login", append(credentials, r.Auth.Login)...)
	a.Get("/me", r.RequireAuth, r.Auth.Me)
	a.Post("/logout", r.RequireAuth, r.Auth.Logout)

	t := api.Group("/tasks", r.RequireAuth)
	t.Get("/", r.Tasks.List)
	t.Post("/", r.Tasks.Create)
	// must precede /:id
	t.Put("/reorder", r.Tasks.Reorder)
	t.Get("/:id", r.Tasks.Get)
	t.Put("/:id", r.Tasks.Update)
	t.Patch("/:id/complete", r.Tasks.ToggleComplete)
	t.Delete("/:id", r.Tasks.Delete)
}
