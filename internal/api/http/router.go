package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	api.Get("/users", auth.RequireRole(domain.RoleAdmin, domain.RoleSupervisor), cfg.Users.List)
	api.Post("/users", auth.RequireRole(domain.RoleAdmin), cfg.Users.Create)
	api.Put("/users/:id", auth.RequireRole(domain.RoleAdmin), cfg.Users.Update)
	api.Delete("/users/:id", auth.RequireRole(domain.RoleAdmin), cfg.Users.Delete)
	api.Put("/profile", cfg.Users.UpdateProfile)

	api.Post("/tickets", cfg.Tickets.Create)
	api.Get("/tickets", cfg.Tickets.List)
	api.Get("/tickets/:id", cfg.Tickets.Get)
	api.Put("/tickets/:id", auth.RequireRole(domain.RoleAdmin, domain.RoleSupervisor), cfg.Tickets.Update)
	api.Patch("/tickets/:id/status", cfg.Tickets.ChangeStatus)

	api.Get("/stats", cfg.Stats.Dashboard)
}
