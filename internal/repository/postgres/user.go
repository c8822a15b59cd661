package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/model"
	"github.com/sakif/wikishelf/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore implements repository.UserRepository.
type UserStore struct {
	db *DB
}

// Create inserts a new user and populates its serial ID.
//
// Username uniqueness is enforced by the UNIQUE constraint, not by a
// lookup-before-insert, the database is the single arbiter, so two
// concurrent registrations of the same name can't both succeed. The
// unique-violation error code (23505) is translated to ErrConflict.
// Uniqueness is byte-wise case-sensitive: "Alice" and "alice" are
// distinct accounts.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	err := s.db.pool.QueryRow(ctx,
		`INSERT INTO users (username, hashed_password)
		 VALUES ($1, $2)
		 RETURNING id`,
		user.Username,
		user.HashedPassword,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.Conflict("username already registered")
		}
		return fmt.Errorf("postgres: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByUsername returns the user with the exact given username, or
// apperror.ErrNotFound if no row matches.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := s.db.pool.QueryRow(ctx,
		`SELECT id, username, hashed_password
		 FROM users
		 WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.HashedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("postgres: getting user %q: %w", username, err)
	}

	return &u, nil
}
