package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/middleware"
	"github.com/noah-isme/classpilot-go/internal/service"
	"github.com/noah-isme/classpilot-go/internal/utils"
)

// AuthHandler exposes account and session endpoints.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth routes. protect guards the session routes.
func (h *AuthHandler) Register(router fiber.Router, protect fiber.Handler) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Get("/me", protect, h.me)
	router.Post("/logout", protect, h.logout)
}

var authErrors = []errorStatus{
	{err: service.ErrEmailTaken, status: fiber.StatusConflict},
	{err: service.ErrInvalidCredentials, status: fiber.StatusUnauthorized},
	{err: service.ErrInvalidToken, status: fiber.StatusUnauthorized},
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.Register(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, authErrors, "register account")
	}

	return utils.SendJSON(c, fiber.StatusCreated, resp)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, authErrors, "log in")
	}

	return utils.SendJSON(c, fiber.StatusOK, resp)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Me(c.UserContext(), teacherIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, authErrors, "load session")
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.MeResponse{User: user})
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	claims, ok := middleware.TokenClaims(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, service.ErrInvalidToken.Error())
	}

	if err := h.service.Logout(c.UserContext(), claims); err != nil {
		return sendServiceError(c, h.logger, err, authErrors, "log out")
	}

	return utils.SendMessage(c, fiber.StatusOK, "Logged out successfully")
}
