package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	// SessionUserIDKey is the session key holding the logged-in user's ID.
	SessionUserIDKey = "user_id"
	// SessionUsernameKey is the session key holding the logged-in user's name.
	SessionUsernameKey = "username"
)

// RequireSession guards protected routes: requests without a logged-in user
// are redirected to /login before the handler runs.
func RequireSession(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Redirect("/login", fiber.StatusFound)
		}
		if sess.Get(SessionUserIDKey) == nil {
			return c.Redirect("/login", fiber.StatusFound)
		}
		return c.Next()
	}
}
