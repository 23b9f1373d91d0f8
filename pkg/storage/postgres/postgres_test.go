package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/user"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	// Verify podman is running.
	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("usersvc_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// uniqueName returns a collision-free name for tests sharing a container.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func makeTestUser(name string) *user.User {
	return &user.User{
		Email:        name + "@example.com",
		Username:     name,
		PasswordHash: "$2a$04$fakehashfakehashfakehas.fakehashfakehashfakehashfakehash",
	}
}

func TestPostgres_SaveAndFind(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	name := uniqueName("alice")
	saved, err := store.Save(ctx, makeTestUser(name))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == 0 {
		t.Error("Save did not return a database-assigned ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("Save did not return a database-assigned CreatedAt")
	}

	byEmail, err := store.FindByEmail(ctx, name+"@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if byEmail.ID != saved.ID {
		t.Errorf("FindByEmail ID = %d, want %d", byEmail.ID, saved.ID)
	}

	byUsername, err := store.FindByUsername(ctx, name)
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if byUsername.ID != saved.ID {
		t.Errorf("FindByUsername ID = %d, want %d", byUsername.ID, saved.ID)
	}
	if byUsername.PasswordHash != saved.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", byUsername.PasswordHash, saved.PasswordHash)
	}
}

func TestPostgres_FindNotFound(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if _, err := store.FindByEmail(ctx, "nonexistent@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindByEmail: expected ErrNotFound, got %v", err)
	}
	if _, err := store.FindByUsername(ctx, "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindByUsername: expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_DuplicateEmail(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	name := uniqueName("dup_email")
	if _, err := store.Save(ctx, makeTestUser(name)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dup := makeTestUser(uniqueName("dup_email_other"))
	dup.Email = name + "@example.com"
	if _, err := store.Save(ctx, dup); !errors.Is(err, storage.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestPostgres_DuplicateUsername(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	name := uniqueName("dup_user")
	if _, err := store.Save(ctx, makeTestUser(name)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dup := makeTestUser(name)
	dup.Email = uniqueName("dup_user_other") + "@example.com"
	if _, err := store.Save(ctx, dup); !errors.Is(err, storage.ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestPostgres_MigrationsIdempotent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	// Re-running migrations against an already-migrated schema is a no-op.
	if err := store.migrate(ctx); err != nil {
		t.Fatalf("re-running migrations failed: %v", err)
	}

	name := uniqueName("post_migrate")
	if _, err := store.Save(ctx, makeTestUser(name)); err != nil {
		t.Fatalf("Save after re-migration failed: %v", err)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
