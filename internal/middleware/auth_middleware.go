package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"panoproperty_backend/internal/session"
)

// Locals keys set by the middlewares of this package.
const (
	LocalSession  = "session"
	LocalToken    = "token"
	LocalProperty = "property"
)

// Sessions resolves an access token to its session holder.
type Sessions interface {
	Get(ctx context.Context, accessToken string) (*session.Holder, error)
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// AuthMiddleware attaches the session holder of the request. Requests
// without a valid token get a signed-out holder; use RequireSignIn to reject
// them.
func AuthMiddleware(sessions Sessions, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		holder, err := sessions.Get(c.UserContext(), token)
		if err != nil {
			logger.Error("could not resolve session", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Could not load session",
			})
		}
		c.Locals(LocalSession, holder)
		c.Locals(LocalToken, token)
		return c.Next()
	}
}

// Session returns the holder attached by AuthMiddleware.
func Session(c *fiber.Ctx) *session.Holder {
	holder, _ := c.Locals(LocalSession).(*session.Holder)
	return holder
}

// Token returns the bearer token of the request.
func Token(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalToken).(string)
	return token
}

func RequireSignIn() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if holder := Session(c); holder == nil || !holder.SignedIn() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Sign in required",
			})
		}
		return c.Next()
	}
}
