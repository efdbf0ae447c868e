package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classpilot-go/internal/config"
	"github.com/noah-isme/classpilot-go/internal/handler"
	"github.com/noah-isme/classpilot-go/internal/middleware"
	"github.com/noah-isme/classpilot-go/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	StudentHandler *handler.StudentHandler
	ClassHandler   *handler.ClassHandler
	JWTMiddleware  fiber.Handler
	DatabasePing   handler.Pinger
	// AuthRateLimit caps login and register attempts per client per minute.
	AuthRateLimit int
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(cfg, deps.DatabasePing))
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DatabasePing))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		if deps.AuthRateLimit > 0 {
			auth.Use([]string{"/login", "/register"}, middleware.RateLimit("auth", deps.AuthRateLimit, time.Minute))
		}
		deps.AuthHandler.Register(auth, jwtMiddleware)
	}

	if deps.StudentHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.StudentHandler.Register(students)
	}

	if deps.ClassHandler != nil {
		classes := api.Group("/classes", jwtMiddleware)
		deps.ClassHandler.Register(classes)
	}
}
