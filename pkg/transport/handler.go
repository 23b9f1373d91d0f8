package transport

import (
	"context"
	"time"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/api"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/user"
)

// AccountService handles registration and credential verification.
// It is the primary handler contract between the HTTP adapter and the
// registration core.
type AccountService interface {
	// Register creates a new account with the given credentials. The
	// password arrives in plaintext and is hashed before storage. On a
	// duplicate identifier it returns storage.ErrDuplicateEmail or
	// storage.ErrDuplicateUsername; email is checked first.
	Register(ctx context.Context, email, username, password string) (*user.User, error)

	// Authenticate verifies an identifier and password pair. It returns
	// (nil, nil) when the credentials do not match any account, without
	// distinguishing unknown identifiers from wrong passwords. The error
	// return is reserved for store failures.
	Authenticate(ctx context.Context, identifier, password string) (*user.User, error)

	// LoginAxis reports which identifier the deployment authenticates on.
	LoginAxis() api.LoginAxis
}

// TokenIssuer mints bearer tokens for authenticated subjects.
// A ttl of zero uses the issuer's configured default.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
