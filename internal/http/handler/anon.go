package handler

import (
	"github.com/gofiber/fiber/v2"

	"imgbed/internal/service"
	"imgbed/internal/view"
)

// RegisterAnonRoutes attaches the anonymous variant's routes: the upload form
// and the file-only upload endpoint. No user store, no sessions.
func RegisterAnonRoutes(app *fiber.App, uploadSvc service.UploadService) {
	app.Get("/healthz", LivenessProbe())
	app.Get("/", AnonIndexPage())
	app.Post("/upload", AnonUpload(uploadSvc))
}

// AnonIndexPage serves the file-only upload form.
func AnonIndexPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		html, err := view.AnonIndex()
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Type("html").SendString(html)
	}
}

// AnonUpload processes files[] only. A batch with zero successes gets a
// plain-text failure message instead of an empty link list.
func AnonUpload(uploadSvc service.UploadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		files, closeFiles, err := localFilesFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_UPLOAD", "cannot read uploaded files")
		}
		defer closeFiles()

		results, err := uploadSvc.Process(c.UserContext(), files, nil)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if len(results) == 0 {
			return c.SendString("Upload failed, please try again.")
		}

		html, err := view.Results(results)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Type("html").SendString(html)
	}
}
