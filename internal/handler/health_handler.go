package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classpilot-go/internal/config"
	"github.com/noah-isme/classpilot-go/internal/utils"
)

// Pinger checks a backing store.
type Pinger func(ctx context.Context) error

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	CheckedAt   time.Time `json:"checkedAt"`
}

const healthPingTimeout = 2 * time.Second

// HealthCheck reports whether the development API and its database respond.
// A failed ping yields 503 with status "degraded".
func HealthCheck(cfg config.Config, ping Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := HealthResponse{
			Status:      "ok",
			Database:    "up",
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			CheckedAt:   time.Now().UTC(),
		}

		status := fiber.StatusOK
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
			defer cancel()
			if err := ping(ctx); err != nil {
				body.Status = "degraded"
				body.Database = "down"
				status = fiber.StatusServiceUnavailable
			}
		} else {
			body.Database = "unknown"
		}

		return utils.SendJSON(c, status, body)
	}
}
