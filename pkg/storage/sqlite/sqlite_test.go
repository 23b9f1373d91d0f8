package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/user"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "users.db")
	store, err := New(context.Background(), Config{Path: path, MigrateOnStart: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func makeTestUser(name string) *user.User {
	return &user.User{
		Email:        name + "@example.com",
		Username:     name,
		PasswordHash: "$2a$04$fakehashfakehashfakehas.fakehashfakehashfakehashfakehash",
	}
}

func TestSQLite_EmptyPath(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("New(empty path) error = nil, want error")
	}
}

func TestSQLite_SaveAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, makeTestUser("alice"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == 0 {
		t.Error("Save did not assign an ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("Save did not assign CreatedAt")
	}
	if saved.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", saved.CreatedAt.Location())
	}

	byEmail, err := store.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if byEmail.ID != saved.ID {
		t.Errorf("FindByEmail ID = %d, want %d", byEmail.ID, saved.ID)
	}
	// Millisecond precision survives the round-trip exactly.
	if !byEmail.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", byEmail.CreatedAt, saved.CreatedAt)
	}

	byUsername, err := store.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if byUsername.PasswordHash != saved.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", byUsername.PasswordHash, saved.PasswordHash)
	}
}

func TestSQLite_FindNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.FindByEmail(ctx, "missing@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindByEmail: expected ErrNotFound, got %v", err)
	}
	if _, err := store.FindByUsername(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindByUsername: expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, makeTestUser("alice")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dup := makeTestUser("alice2")
	dup.Email = "alice@example.com"
	if _, err := store.Save(ctx, dup); !errors.Is(err, storage.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestSQLite_DuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, makeTestUser("alice")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dup := makeTestUser("alice")
	dup.Email = "alice2@example.com"
	if _, err := store.Save(ctx, dup); !errors.Is(err, storage.ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	ctx := context.Background()

	first, err := New(ctx, Config{Path: path, MigrateOnStart: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	saved, err := first.Save(ctx, makeTestUser("alice"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := New(ctx, Config{Path: path, MigrateOnStart: true})
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
	defer second.Close()

	got, err := second.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername after reopen failed: %v", err)
	}
	if got.ID != saved.ID {
		t.Errorf("ID = %d, want %d", got.ID, saved.ID)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestSQLite_MigrationsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.migrate(ctx); err != nil {
		t.Fatalf("re-running migrations failed: %v", err)
	}
	if _, err := store.Save(ctx, makeTestUser("alice")); err != nil {
		t.Fatalf("Save after re-migration failed: %v", err)
	}
}

func TestSQLite_HealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
