package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"imgbed/internal/model"
	"imgbed/internal/repository"
)

// Postgres error code for unique constraint violations.
const uniqueViolationCode = "23505"

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// Create inserts a new user row and returns the stored record.
// A unique violation on username is mapped to repository.ErrDuplicateUsername.
func (r *UserPostgres) Create(ctx context.Context, user *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (username, password_digest)
		VALUES ($1, $2)
		RETURNING id, username, password_digest, created_at
	`
	row := r.db.QueryRowContext(ctx, q, user.Username, user.PasswordDigest)
	var out model.User
	if err := row.Scan(
		&out.ID,
		&out.Username,
		&out.PasswordDigest,
		&out.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateUsername
		}
		return nil, err
	}
	return &out, nil
}

// FindByUsername fetches a single user by username.
func (r *UserPostgres) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `
		SELECT id, username, password_digest, created_at
		FROM users
		WHERE username = $1
	`
	row := r.db.QueryRowContext(ctx, q, username)
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordDigest,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
