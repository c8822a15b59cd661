package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wikishelf/internal/apperror"
	"github.com/sakif/wikishelf/internal/model"
)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWithPool(mock, logger), mock
}

func TestCreateUser(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "$2a$12$hash").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	user := &model.User{Username: "alice", HashedPassword: "$2a$12$hash"}
	err := db.Users().Create(context.Background(), user)

	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "$2a$12$hash").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := db.Users().Create(context.Background(), &model.User{Username: "alice", HashedPassword: "$2a$12$hash"})

	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT id, username, hashed_password`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "hashed_password"}).
			AddRow(int64(7), "alice", "$2a$12$hash"))

	user, err := db.Users().GetByUsername(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "$2a$12$hash", user.HashedPassword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsernameNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT id, username, hashed_password`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := db.Users().GetByUsername(context.Background(), "ghost")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsernameQueryError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT id, username, hashed_password`).
		WithArgs("alice").
		WillReturnError(errors.New("connection reset"))

	_, err := db.Users().GetByUsername(context.Background(), "alice")

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
