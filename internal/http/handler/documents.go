package handler

import (
	"github.com/gofiber/fiber/v2"

	"ebandeja/internal/model"
	"ebandeja/internal/service"
)

// ListDocuments returns the full inbox, newest first.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		if docs == nil {
			docs = []model.Document{}
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(fiber.Map{"documents": docs})
	}
}

// UploadDocument stores a new draft (multipart/form-data, field name: file).
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, cleanup, err := formUpload(c)
		if err != nil {
			return writeServiceError(c, err)
		}
		defer cleanup()

		doc, err := svc.Create(c.UserContext(), *up)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": doc})
	}
}

// SignDocument attaches the signed replacement for an existing document.
func SignDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		up, cleanup, err := formUpload(c)
		if err != nil {
			return writeServiceError(c, err)
		}
		defer cleanup()

		doc, err := svc.Sign(c.UserContext(), c.Params("id"), *up)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"document": doc})
	}
}

// DeleteDocument removes a document and all of its stored objects.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// LivenessProbe is a plain 200 for infrastructure health checks.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// formUpload extracts the "file" form field as a service Upload. The caller
// must invoke cleanup after the service consumed the reader.
func formUpload(c *fiber.Ctx) (*service.Upload, func(), error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, service.ErrFileRequired
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, service.ErrFileRequired
	}

	return &service.Upload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
	}, func() { _ = f.Close() }, nil
}
