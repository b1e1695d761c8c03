package handler

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"imgbed/internal/http/middleware"
	"imgbed/internal/service"
	"imgbed/internal/view"
)

// RegisterRoutes attaches the session-gated application routes.
// Handlers stay thin; batch and credential logic lives in the services.
func RegisterRoutes(app *fiber.App, db *sql.DB, authSvc service.AuthService, uploadSvc service.UploadService, store *session.Store) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/register", RegisterPage())
	app.Post("/register", RegisterUser(authSvc))
	app.Get("/login", LoginPage())
	app.Post("/login", LoginUser(authSvc, store))
	app.Get("/logout", Logout(store))

	app.Get("/", middleware.RequireSession(store), IndexPage())
	app.Get("/upload", middleware.RequireSession(store), UploadForm())
	app.Post("/upload", middleware.RequireSession(store), ProcessUpload(uploadSvc))
}

// HealthCheck verifies DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// RegisterPage serves the registration form.
func RegisterPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		html, err := view.Register()
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Type("html").SendString(html)
	}
}

// RegisterUser creates an account and redirects to the login page.
// Registration does not establish a session.
func RegisterUser(authSvc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := c.FormValue("username")
		password := c.FormValue("password")

		_, err := authSvc.Register(c.UserContext(), username, password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrCredentialsRequired):
				return c.Status(fiber.StatusBadRequest).SendString("Username and password are required.")
			case errors.Is(err, service.ErrUsernameTaken):
				return c.Status(fiber.StatusConflict).SendString("Registration failed: username already taken.")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
}

// LoginPage serves the login form.
func LoginPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		html, err := view.Login()
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Type("html").SendString(html)
	}
}

// LoginUser verifies credentials and establishes a session. The failure
// message is the same for unknown users and wrong passwords.
func LoginUser(authSvc service.AuthService, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := c.FormValue("username")
		password := c.FormValue("password")

		user, err := authSvc.Authenticate(c.UserContext(), username, password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				return c.Status(fiber.StatusUnauthorized).SendString("Login failed: check your username and password.")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		sess, err := store.Get(c)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		sess.Set(middleware.SessionUserIDKey, user.ID)
		sess.Set(middleware.SessionUsernameKey, user.Username)
		if err := sess.Save(); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Redirect("/", fiber.StatusFound)
	}
}

// Logout destroys the session and redirects to the login page. A no-op for
// anonymous visitors.
func Logout(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sess, err := store.Get(c); err == nil {
			_ = sess.Destroy()
		}
		return c.Redirect("/login", fiber.StatusFound)
	}
}

// IndexPage serves the upload form with the file picker and URL textarea.
func IndexPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		html, err := view.Index()
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Type("html").SendString(html)
	}
}

// UploadForm sends browsers that GET the upload route back to the form.
func UploadForm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Redirect("/", fiber.StatusFound)
	}
}

// ProcessUpload handles the batch: multipart files[] plus the image_links
// textarea. An all-failed batch redirects back to the form.
func ProcessUpload(uploadSvc service.UploadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		files, closeFiles, err := localFilesFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_UPLOAD", "cannot read uploaded files")
		}
		defer closeFiles()

		urls := splitLines(c.FormValue("image_links"))

		results, err := uploadSvc.Process(c.UserContext(), files, urls)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if len(results) == 0 {
			return c.Redirect("/", fiber.StatusSeeOther)
		}

		html, err := view.Results(results)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Type("html").SendString(html)
	}
}

// localFilesFromForm opens every files[] part as a streaming LocalFile.
// The returned closer must be called after the batch is processed.
func localFilesFromForm(c *fiber.Ctx) ([]service.LocalFile, func(), error) {
	noop := func() {}

	form, err := c.MultipartForm()
	if err != nil || form == nil {
		// No multipart body at all is fine: the batch may be URLs only.
		return nil, noop, nil
	}

	var files []service.LocalFile
	var closers []func() error
	for _, fh := range form.File["files[]"] {
		f, err := fh.Open()
		if err != nil {
			for _, cl := range closers {
				_ = cl()
			}
			return nil, noop, err
		}
		closers = append(closers, f.Close)
		files = append(files, service.LocalFile{
			Filename: fh.Filename,
			Reader:   f,
			Size:     fh.Size,
		})
	}

	return files, func() {
		for _, cl := range closers {
			_ = cl()
		}
	}, nil
}

func splitLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
