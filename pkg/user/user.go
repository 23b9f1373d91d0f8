package user

import (
	"context"
	"time"
)

// User is a registered identity. The password hash is internal state; it
// never leaves the service through the HTTP surface.
type User struct {
	// ID is the numeric identifier assigned by the store on creation.
	ID int64

	// Email is unique across all users.
	Email string

	// Username is unique across all users and doubles as the token
	// subject.
	Username string

	// PasswordHash is the salted one-way derivation of the password.
	PasswordHash string

	// CreatedAt is set by the store when the user is first persisted.
	CreatedAt time.Time
}

// Store is the credential store consumed by the Service. Implementations
// live under pkg/storage.
type Store interface {
	// FindByEmail retrieves a user by email. Returns storage.ErrNotFound
	// when no user matches.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsername retrieves a user by username. Returns
	// storage.ErrNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// Save persists a new user and returns it with the store-assigned ID
	// and creation timestamp. Uniqueness violations surface as
	// storage.ErrDuplicateEmail or storage.ErrDuplicateUsername.
	Save(ctx context.Context, u *User) (*User, error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
