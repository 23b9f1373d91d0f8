package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/api"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth/password"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage"
)

// Service orchestrates registration, credential verification, and
// token-subject resolution against the credential store. It is stateless
// beyond its configuration and safe for concurrent use.
type Service struct {
	store  Store
	hasher password.Hasher
	axis   api.LoginAxis
	logger *slog.Logger

	// dummyHash is verified against on lookup misses so that an unknown
	// identifier and a wrong password cost the same.
	dummyHash string
}

var _ auth.Resolver = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLoginAxis selects the identifier users authenticate with. The
// default is the username.
func WithLoginAxis(axis api.LoginAxis) Option {
	return func(s *Service) { s.axis = axis }
}

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service backed by the given store and hasher.
func NewService(store Store, hasher password.Hasher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("user: store must not be nil")
	}
	if hasher == nil {
		return nil, fmt.Errorf("user: hasher must not be nil")
	}

	s := &Service{
		store:  store,
		hasher: hasher,
		axis:   api.LoginAxisUsername,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.axis.Valid() {
		return nil, fmt.Errorf("user: unsupported login axis %q", s.axis)
	}

	dummy, err := hasher.Hash("3mJ2xqPv-not-a-credential")
	if err != nil {
		return nil, fmt.Errorf("user: priming dummy hash: %w", err)
	}
	s.dummyHash = dummy

	return s, nil
}

// LoginAxis reports the identifier users authenticate with.
func (s *Service) LoginAxis() api.LoginAxis {
	return s.axis
}

// Register creates a new user after checking both uniqueness axes. Email
// is checked before username, so when both collide the caller sees
// storage.ErrDuplicateEmail. The plaintext password is hashed before the
// user is handed to the store and is not retained.
func (s *Service) Register(ctx context.Context, email, username, plaintext string) (*User, error) {
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, storage.ErrDuplicateEmail
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return nil, storage.ErrDuplicateUsername
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	// Concurrent registrations can race past the pre-checks; the store's
	// unique constraints are the backstop and report the same sentinels.
	created, err := s.store.Save(ctx, &User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", created.ID),
		slog.String("username", created.Username),
	)
	return created, nil
}

// Authenticate verifies credentials on the configured login axis. It
// returns (nil, nil) both when the identifier is unknown and when the
// password does not match; the two outcomes are indistinguishable to the
// caller. The error return is reserved for store failures.
func (s *Service) Authenticate(ctx context.Context, identifier, plaintext string) (*User, error) {
	u, err := s.lookup(ctx, identifier)
	if errors.Is(err, storage.ErrNotFound) {
		// Burn one verification so a miss is not observably faster than
		// a mismatch.
		s.hasher.Verify(plaintext, s.dummyHash)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", s.axis, err)
	}

	if !s.hasher.Verify(plaintext, u.PasswordHash) {
		return nil, nil
	}
	return u, nil
}

// ResolveBySubject fetches the live user behind a token subject. It
// returns (nil, nil) when the subject no longer exists, so callers fail
// closed instead of trusting stale token contents.
func (s *Service) ResolveBySubject(ctx context.Context, subject string) (*User, error) {
	u, err := s.store.FindByUsername(ctx, subject)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving subject: %w", err)
	}
	return u, nil
}

// ResolveSubject implements auth.Resolver by projecting the resolved user
// to its principal.
func (s *Service) ResolveSubject(ctx context.Context, subject string) (*auth.Principal, error) {
	u, err := s.ResolveBySubject(ctx, subject)
	if err != nil || u == nil {
		return nil, err
	}
	return &auth.Principal{
		UserID:    u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}, nil
}

func (s *Service) lookup(ctx context.Context, identifier string) (*User, error) {
	if s.axis == api.LoginAxisEmail {
		return s.store.FindByEmail(ctx, identifier)
	}
	return s.store.FindByUsername(ctx, identifier)
}
