package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"ebandeja/internal/auth"
)

type loginRequest struct {
	Password string `json:"password"`
}

// AuthStatus reports whether the request carries a live session. The check
// itself slides the session TTL forward on a hit.
func AuthStatus(guard *auth.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(fiber.Map{
			"authenticated": guard.Authenticated(c.Cookies(auth.SessionCookieName)),
		})
	}
}

// Login validates the shared password and issues the session cookie. An
// exhausted failed-attempt window yields 429 with a Retry-After hint; a
// malformed body counts as a wrong password.
func Login(guard *auth.Guard, secureCookies bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")

		var body loginRequest
		_ = c.BodyParser(&body)

		token, err := guard.Login(c.IP(), body.Password)
		if err != nil {
			var rle *auth.RateLimitedError
			if errors.As(err, &rle) {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(rle.RetryAfter))
				return writeError(c, fiber.StatusTooManyRequests, msgRateLimited)
			}
			if errors.Is(err, auth.ErrBadPassword) {
				return writeError(c, fiber.StatusUnauthorized, "Contrasena incorrecta")
			}
			return writeError(c, fiber.StatusInternalServerError, msgInternal)
		}

		c.Cookie(sessionCookie(token, int(auth.SessionTTL.Seconds()), secureCookies))
		return c.JSON(fiber.Map{"ok": true})
	}
}

// Logout drops the session, if any, and expires the cookie. Idempotent.
func Logout(guard *auth.Guard, secureCookies bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")

		if token := c.Cookies(auth.SessionCookieName); token != "" {
			guard.Logout(token)
		}

		cookie := sessionCookie("", -1, secureCookies)
		cookie.Expires = time.Unix(0, 0)
		c.Cookie(cookie)

		return c.JSON(fiber.Map{"ok": true})
	}
}

func sessionCookie(value string, maxAge int, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
