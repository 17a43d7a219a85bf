package middleware

import (
	"github.com/gofiber/fiber/v2"

	"ebandeja/internal/auth"
)

// RequireSession guards document routes: the request's session cookie must
// map to a live session, whose TTL the check itself slides forward. A
// missing or stale cookie yields a 401 JSON body, never a redirect (the
// frontend decides how to react).
func RequireSession(guard *auth.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !guard.Authenticated(c.Cookies(auth.SessionCookieName)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No autenticado.",
			})
		}
		return c.Next()
	}
}
