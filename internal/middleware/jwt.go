package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/classpilot-go/internal/service"
	"github.com/noah-isme/classpilot-go/internal/utils"
)

const (
	userIDKey      = "user_id"
	tokenClaimsKey = "token_claims"
)

// Authenticator verifies bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (service.TokenClaims, error)
}

// JWTProtected returns a middleware that validates JWT bearer tokens.
func JWTProtected(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "No token provided")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, service.ErrInvalidToken.Error())
		}

		claims, err := auth.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				return utils.SendError(c, fiber.StatusUnauthorized, service.ErrInvalidToken.Error())
			}
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to verify token")
		}

		c.Locals(userIDKey, claims.TeacherID)
		c.Locals(tokenClaimsKey, claims)

		return c.Next()
	}
}

// UserID returns the authenticated teacher bound to the request.
func UserID(c *fiber.Ctx) string {
	if value, ok := c.Locals(userIDKey).(string); ok {
		return value
	}
	return ""
}

// TokenClaims returns the verified token claims bound to the request.
func TokenClaims(c *fiber.Ctx) (service.TokenClaims, bool) {
	claims, ok := c.Locals(tokenClaimsKey).(service.TokenClaims)
	return claims, ok
}
