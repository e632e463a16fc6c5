package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eventflow/internal/api/http/handlers"
	"github.com/spec-kit/eventflow/internal/auth"
	"github.com/spec-kit/eventflow/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Metrics           *handlers.MetricsHandler
	Pages             *handlers.PagesHandler
	Auth              *handlers.AuthHandler
	Events            *handlers.EventsHandler
	Tickets           *handlers.TicketsHandler
	SessionMiddleware *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes. Probes and metrics are registered ahead of
// the session middleware so they never create sessions.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Show)

	app.Use(cfg.SessionMiddleware.Handle)

	app.Get("/", cfg.Pages.Show)
	app.Get("/go/:page", cfg.Pages.Navigate)

	app.Post("/login", cfg.Auth.Login)
	app.Post("/signup", cfg.Auth.Signup)
	app.Post("/signup/confirm", cfg.Auth.Confirm)
	app.Post("/logout", cfg.Auth.Logout)

	app.Post("/events", auth.RequireRole(domain.RoleOrganizer, domain.RoleAdmin), cfg.Events.Create)
	app.Post("/events/:id/register", auth.RequireUser(), cfg.Events.Register)

	admin := app.Group("", auth.RequireRole(domain.RoleAdmin))
	admin.Post("/registrations/:id/tickets", cfg.Tickets.Issue)
	admin.Post("/tickets/:id/scan", cfg.Tickets.Scan)
}
