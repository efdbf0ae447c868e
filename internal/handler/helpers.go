package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/middleware"
	"github.com/noah-isme/classpilot-go/internal/utils"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

func teacherIDFromContext(c *fiber.Ctx) string {
	return middleware.UserID(c)
}

// param returns a trimmed copy of a route parameter that outlives the request.
func param(c *fiber.Ctx, name string) string {
	return strings.TrimSpace(strings.Clone(c.Params(name)))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// errorStatus pairs a service error with its HTTP status.
type errorStatus struct {
	err    error
	status int
}

// sendServiceError maps known service errors to their status and logs the rest.
func sendServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, known []errorStatus, action string) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return utils.SendValidationError(c, verr)
	}
	for _, k := range known {
		if errors.Is(err, k.err) {
			return utils.SendError(c, k.status, k.err.Error())
		}
	}

	requestLogger(logger, c).Error().Err(err).Msg("failed to " + action)
	return utils.SendError(c, fiber.StatusInternalServerError, "failed to "+action)
}
