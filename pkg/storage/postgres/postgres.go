// Package postgres provides a PostgreSQL implementation of user.Store.
// It uses pgx/v5 for connection pooling and embedded SQL migrations for
// schema management.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/debug"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/user"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed user store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements user.Store at compile time.
var _ user.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// FindByEmail retrieves a user by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findBy(ctx, "email", email)
}

// FindByUsername retrieves a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.findBy(ctx, "username", username)
}

// findBy is the shared lookup; column is always a fixed identifier, never
// caller input.
func (s *Store) findBy(ctx context.Context, column, value string) (*user.User, error) {
	start := time.Now()
	query := fmt.Sprintf(`
		SELECT id, email, username, password_hash, created_at
		FROM users
		WHERE %s = $1
	`, column)

	var u user.User
	err := s.pool.QueryRow(ctx, query, value).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		debug.Log("storage", "postgres lookup miss", "column", column, "duration", time.Since(start))
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by %s: %w", column, err)
	}
	debug.Log("storage", "postgres lookup hit", "column", column, "duration", time.Since(start))
	return &u, nil
}

// Save persists a new user. The id and created_at come back from the
// database so every backend agrees on who assigns them.
func (s *Store) Save(ctx context.Context, u *user.User) (*user.User, error) {
	start := time.Now()
	saved := *u
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, u.Email, u.Username, u.PasswordHash).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		if dup := duplicateKeyError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	debug.Log("storage", "postgres insert", "id", saved.ID, "duration", time.Since(start))
	return &saved, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// duplicateKeyError maps a PostgreSQL unique violation to the sentinel for
// the constraint that fired, or nil if err is not a unique violation.
func duplicateKeyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return storage.ErrDuplicateEmail
	case "users_username_key":
		return storage.ErrDuplicateUsername
	}
	return fmt.Errorf("unique violation on %s: %w", pgErr.ConstraintName, err)
}
