package utils

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

// SendJSON writes body with the given status code.
func SendJSON(c *fiber.Ctx, status int, body interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(body)
}

// SendMessage writes a plain acknowledgement body.
func SendMessage(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "success"
	}
	return SendJSON(c, status, dto.MessageResponse{Message: message})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: message})
}

// SendValidationError reports field-keyed validation failures with status 400.
func SendValidationError(c *fiber.Ctx, err *validation.Error) error {
	messages := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		messages = append(messages, f.Message)
	}
	message := strings.Join(messages, "; ")
	if message == "" {
		message = "validation failed"
	}

	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: message, Fields: err.Map()})
}

// ErrorHandler renders errors that escape handlers in the API error shape.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			status = ferr.Code
			message = ferr.Message
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled request error")
		}

		return SendError(c, status, message)
	}
}
