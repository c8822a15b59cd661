// Package postgres implements the repository interfaces on PostgreSQL
// using jackc/pgx.
//
// WHY AN INTERFACE FOR THE POOL?
// The repository methods run against DBPool rather than *pgxpool.Pool
// directly. In production the pool is the real thing; in tests it's a
// pgxmock pool, which lets us exercise the SQL and scanning logic without
// a database. Only the subset of pool methods we actually use is in the
// interface.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connection pool tuning.
const (
	maxConns        = int32(25)
	minConns        = int32(2)
	maxConnLifetime = time.Hour
	maxConnIdleTime = 30 * time.Minute
	connectTimeout  = 30 * time.Second
)

// uniqueViolation is the postgres error code for a UNIQUE constraint hit.
const uniqueViolation = "23505"

// DBPool is the slice of pgxpool.Pool the repositories need.
// pgxmock's PgxPoolIface satisfies it too.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// DB wraps a connection pool and hands out the per-aggregate stores.
// The repository interfaces both name a Create method, so they can't share
// one receiver type; UserStore and ArticleStore split them while sharing
// the pool.
type DB struct {
	pool   DBPool
	logger *slog.Logger
}

// Users returns the user store backed by this pool.
func (db *DB) Users() *UserStore {
	return &UserStore{db: db}
}

// Articles returns the article store backed by this pool.
func (db *DB) Articles() *ArticleStore {
	return &ArticleStore{db: db}
}

// New connects to postgres, verifies the connection, and bootstraps the
// schema. The dsn is the full connection string, already including any
// sslrootcert parameter the config layer appended.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection string: %w", err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating connection pool: %w", err)
	}

	// Ping forces an immediate connection, a bad DSN or unreachable host
	// surfaces here rather than on the first query.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{pool: pool, logger: logger}

	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	logger.Info("database connection established",
		slog.String("database", poolConfig.ConnConfig.Database),
		slog.Int("max_conns", int(maxConns)),
	)

	return db, nil
}

// NewWithPool wraps an existing pool without connecting or migrating.
// Used by tests to inject a pgxmock pool.
func NewWithPool(pool DBPool, logger *slog.Logger) *DB {
	return &DB{pool: pool, logger: logger}
}

// Close closes the connection pool. Safe to call once at shutdown.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping reports whether the database is reachable. Used by /health if a
// deeper check is ever wanted; today health is a liveness probe only.
func (db *DB) Ping(ctx context.Context) error {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if p, ok := db.pool.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// migrate bootstraps the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent, safe to run on every startup. For a system this size an
// in-process bootstrap beats carrying a migration tool.
func (db *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              BIGSERIAL PRIMARY KEY,
			username        TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id       BIGSERIAL PRIMARY KEY,
			title    TEXT NOT NULL,
			url      TEXT NOT NULL,
			owner_id BIGINT NOT NULL REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_owner_id ON articles(owner_id)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id   BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		// position records the order of first occurrence in the replace-tags
		// request; reads order by it so tag order survives round trips.
		`CREATE TABLE IF NOT EXISTS article_tag_association (
			article_id BIGINT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			tag_id     BIGINT NOT NULL REFERENCES tags(id),
			position   INT NOT NULL DEFAULT 0,
			PRIMARY KEY (article_id, tag_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	return nil
}
