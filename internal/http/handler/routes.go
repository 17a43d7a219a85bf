package handler

import (
	"github.com/gofiber/fiber/v2"

	"ebandeja/internal/auth"
	"ebandeja/internal/http/middleware"
	"ebandeja/internal/service"
)

// RegisterRoutes attaches the API routes to the provided Fiber app. The auth
// endpoints are public; everything under /api/documents requires a live
// session. Unknown /api paths answer a JSON 404 so the SPA fallback never
// swallows API typos.
func RegisterRoutes(app *fiber.App, guard *auth.Guard, docSvc service.DocumentService, secureCookies bool) {
	authAPI := app.Group("/api/auth")
	authAPI.Get("/status", AuthStatus(guard))
	authAPI.Post("/login", Login(guard, secureCookies))
	authAPI.Post("/logout", Logout(guard, secureCookies))

	docs := app.Group("/api/documents", middleware.RequireSession(guard))
	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/", UploadDocument(docSvc))
	docs.Post("/:id/sign", SignDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))

	app.Get("/healthz", LivenessProbe())

	app.Use("/api", func(c *fiber.Ctx) error {
		return writeError(c, fiber.StatusNotFound, msgNotFound)
	})
}
