// Package sqlite provides a SQLite implementation of user.Store backed by
// the pure-Go modernc.org/sqlite driver. It suits single-node deployments
// that want persistence without operating a database server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/debug"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/user"
)

// Config holds SQLite settings.
type Config struct {
	// Path is the database file path. Required.
	Path string

	// MigrateOnStart runs schema migrations automatically at startup.
	MigrateOnStart bool
}

// Store is a SQLite-backed user store. Timestamps are stored as UTC
// millisecond integers.
type Store struct {
	db *sql.DB
}

// Ensure Store implements user.Store at compile time.
var _ user.Store = (*Store)(nil)

// New opens the SQLite database at cfg.Path, creating it if needed.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	dsn := filepath.Clean(cfg.Path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite supports one writer at a time; a single connection keeps
	// concurrent registrations from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: db}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
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
		WHERE %s = ?1
	`, column)

	var u user.User
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		debug.Log("storage", "sqlite lookup miss", "column", column, "duration", time.Since(start))
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by %s: %w", column, err)
	}
	debug.Log("storage", "sqlite lookup hit", "column", column, "duration", time.Since(start))
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

// Save persists a new user, assigning its ID and creation timestamp.
func (s *Store) Save(ctx context.Context, u *user.User) (*user.User, error) {
	start := time.Now()
	createdAt := start.UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, username, password_hash, created_at)
		VALUES (?1, ?2, ?3, ?4)
	`, u.Email, u.Username, u.PasswordHash, toMillis(createdAt))
	if err != nil {
		if dup := duplicateKeyError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading inserted id: %w", err)
	}

	saved := *u
	saved.ID = id
	saved.CreatedAt = fromMillis(toMillis(createdAt))
	debug.Log("storage", "sqlite insert", "id", saved.ID, "duration", time.Since(start))
	return &saved, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// duplicateKeyError maps a SQLite unique violation to the sentinel for the
// column that fired, or nil if err is not a unique violation. The driver
// reports the column in the message ("UNIQUE constraint failed: users.email").
func duplicateKeyError(err error) error {
	if err == nil {
		return nil
	}

	unique := false
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			unique = true
		}
	}

	message := strings.ToLower(err.Error())
	if !unique && !strings.Contains(message, "unique constraint failed") {
		return nil
	}

	switch {
	case strings.Contains(message, "users.email"):
		return storage.ErrDuplicateEmail
	case strings.Contains(message, "users.username"):
		return storage.ErrDuplicateUsername
	}
	if unique {
		return fmt.Errorf("unique violation: %w", err)
	}
	return nil
}
