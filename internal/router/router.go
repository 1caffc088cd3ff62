package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campuswell/campuswell-api/internal/config"
	"github.com/campuswell/campuswell-api/internal/handler"
	"github.com/campuswell/campuswell-api/internal/middleware"
	"github.com/campuswell/campuswell-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ScreeningHandler  *handler.ScreeningHandler
	CaseHandler       *handler.CaseHandler
	CounsellorHandler *handler.CounsellorHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Screening intake
	if deps.ScreeningHandler != nil {
		screenings := api.Group("/screenings", jwtMiddleware,
			middleware.RateLimit("screenings", cfg.ScreeningRateLimit, cfg.ScreeningRateWindow))
		deps.ScreeningHandler.Register(screenings)
	}

	// Admin dashboard (flagged cases & counsellors)
	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole("admin", "counsellor"))

	if deps.CaseHandler != nil {
		deps.CaseHandler.Register(admin.Group("/cases"))
	}

	if deps.CounsellorHandler != nil {
		deps.CounsellorHandler.Register(admin.Group("/counsellors"))
	}
}
