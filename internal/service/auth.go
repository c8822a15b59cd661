// Package service contains the business logic layer.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and return domain errors, no HTTP types in
// their signatures, no status codes in their vocabulary. The handler layer
// owns the translation in both directions. Dependencies come in as
// interfaces where a test wants to substitute them (repositories, external
// clients) and as concrete types where it doesn't (token and password
// services, which are pure functions of their config).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/auth"
	"github.com/sakif/wikishelf/internal/model"
	"github.com/sakif/wikishelf/internal/repository"
)

// MaxUsernameLength keeps usernames displayable; bcrypt itself caps
// passwords at 72 bytes (enforced in PasswordService.Hash).
const MaxUsernameLength = 64

// AuthService handles registration, login, and current-user lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new account with a bcrypt-hashed password.
// A taken username surfaces as apperror.ErrConflict from the repository,
// the database's unique constraint is the arbiter, not a pre-check.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hashed, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:       username,
		HashedPassword: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies the credentials and returns a signed bearer token.
//
// Unknown username and wrong password produce the identical error, the
// response must not reveal which half of the credential pair was bad.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	badCredentials := apperror.Unauthorized("incorrect username or password")

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", badCredentials
		}
		return "", fmt.Errorf("looking up user for login: %w", err)
	}

	if err := s.passwords.Verify(user.HashedPassword, password); err != nil {
		return "", badCredentials
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return "", fmt.Errorf("issuing token for %q: %w", username, err)
	}

	s.logger.Info("user logged in", slog.String("username", username))
	return token, nil
}

// CurrentUser resolves a validated token subject to the full user record.
//
// A valid token naming a user that no longer exists is an authentication
// failure, not a 404, the caller isn't anyone we know.
func (s *AuthService) CurrentUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("unknown user")
		}
		return nil, fmt.Errorf("looking up current user: %w", err)
	}
	return user, nil
}
