package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"imgbed/internal/model"
	"imgbed/internal/repository"
)

var (
	// ErrCredentialsRequired is returned when username or password is empty.
	ErrCredentialsRequired = errors.New("username and password are required")
	// ErrUsernameTaken is returned by Register on a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials covers both unknown user and wrong password, so a
	// caller cannot distinguish the two.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// AuthService handles registration and credential verification. Session
// establishment is left to the HTTP layer; registration does not log in.
type AuthService interface {
	// Register creates a user with a one-way password digest.
	Register(ctx context.Context, username, password string) (*model.User, error)

	// Authenticate verifies the credentials and returns the matching user.
	// Any mismatch yields ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

type authService struct {
	users    repository.UserRepository
	hashCost int
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UserRepository) AuthService {
	return &authService{users: users, hashCost: bcrypt.DefaultCost}
}

func (s *authService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &model.User{
		Username:       username,
		PasswordDigest: string(digest),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
