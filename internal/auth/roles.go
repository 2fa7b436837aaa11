package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-intake/pkg/util/errorutil"
)

// RequireSession ensures a handler only runs behind AuthMiddleware.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok || !session.Authenticated() {
			return apperrors.NewUnauthenticated("authentication required")
		}
		return c.Next()
	}
}
