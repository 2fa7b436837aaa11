package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/ticket-intake/internal/api/http/handlers"
	"github.com/spec-kit/ticket-intake/internal/auth"
	"github.com/spec-kit/ticket-intake/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Options        *handlers.OptionsHandler
	Forms          *handlers.FormsHandler
	Password       *handlers.PasswordHandler
	Metrics        *observability.Metrics
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	app.Get("/options", cfg.Options.List)
	app.Post("/password/reset", cfg.Password.Reset)

	requireSession := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireSession()}
	app.Get("/receipts", append(requireSession, cfg.Forms.Receipts)...)

	forms := app.Group("/forms", requireSession...)
	forms.Post("/", cfg.Forms.Open)
	forms.Get("/:id", cfg.Forms.Get)
	forms.Patch("/:id", cfg.Forms.Update)
	forms.Delete("/:id", cfg.Forms.Discard)
	forms.Post("/:id/attachments", cfg.Forms.AddAttachments)
	forms.Delete("/:id/attachments/:index", cfg.Forms.RemoveAttachment)
	forms.Post("/:id/submit", cfg.Forms.Submit)
	forms.Post("/:id/another", cfg.Forms.CreateAnother)
	forms.Get("/:id/notices", cfg.Forms.Notices)
}
