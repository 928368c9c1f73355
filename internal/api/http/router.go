package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/complaint-analytics/internal/api/http/handlers"
	"github.com/spec-kit/complaint-analytics/internal/auth"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/analytics", cfg.AuthMiddleware.Handle, auth.RequireRole(auth.AnalyticsRoles...))
	api.Get("/summary", cfg.Analytics.Summary)
	api.Get("/report", cfg.Analytics.Report)
	api.Get("/heatmap", cfg.Analytics.Heatmap)
	api.Get("/export", cfg.Analytics.Export)

	app.Use(notFound)
}

// notFound answers every request no route above handled.
func notFound(c *fiber.Ctx) error {
	observability.MarkUnmatched(c)
	return apperrors.NewNotFound("route", nil)
}
