package repository

import (
	"context"
	"errors"

	"imgbed/internal/model"
)

// ErrDuplicateUsername is returned by Create when the username is already
// taken. The database's unique constraint is the source of truth, so
// concurrent registrations of the same name resolve to exactly one success.
var ErrDuplicateUsername = errors.New("username already exists")

// UserRepository defines data access for user accounts using SQL queries only.
// No business logic here, strictly persistence operations.
type UserRepository interface {
	// Create inserts a new user record and returns the stored user with its
	// database-assigned ID. Returns ErrDuplicateUsername on a unique violation.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FindByUsername returns a user by username. Returns sql.ErrNoRows when absent.
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}
