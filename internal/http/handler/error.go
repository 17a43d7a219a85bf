package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ebandeja/internal/service"
)

const (
	msgInternal    = "Error interno del servidor."
	msgTooLarge    = "El archivo supera el tamano maximo permitido (20MB)."
	msgNotFound    = "Not found"
	msgRateLimited = "Demasiados intentos fallidos. Intenta de nuevo en unos minutos."
)

// errorResponse is the error body shape for every failure: {"error": message}.
// No stack traces or internal details ever reach a client.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorResponse{Error: message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses. Known
// validation and lookup errors carry their own user-facing message; anything
// else is an upstream storage failure reported generically as a 500.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrFileRequired),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrInvalidMIME),
		errors.Is(err, service.ErrEmptyFile):
		return writeError(c, fiber.StatusBadRequest, capitalize(err.Error())+".")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, capitalize(err.Error())+".")
	case errors.Is(err, service.ErrTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, msgTooLarge)
	default:
		return writeError(c, fiber.StatusInternalServerError, msgInternal)
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// ErrorHandler returns a Fiber global error handler that standardizes stray
// errors (unmatched routes, oversized bodies rejected by the framework,
// panics recovered upstream) into the JSON error shape.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return writeError(c, fiber.StatusInternalServerError, msgInternal)
		}

		switch fe.Code {
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, fe.Code, msgTooLarge)
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, msgNotFound)
		default:
			if fe.Code >= fiber.StatusInternalServerError {
				return writeError(c, fe.Code, msgInternal)
			}
			return writeError(c, fe.Code, fe.Message)
		}
	}
}
