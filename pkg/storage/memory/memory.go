// Package memory provides an in-memory implementation of user.Store for
// testing and lightweight deployments. Users are stored in memory and lost
// when the process restarts.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/user"
)

// Store is an in-memory user store with unique email and username indexes.
type Store struct {
	mu         sync.RWMutex
	closed     bool
	nextID     int64
	byID       map[int64]*user.User
	byEmail    map[string]int64
	byUsername map[string]int64
}

// Ensure Store implements user.Store at compile time.
var _ user.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		nextID:     1,
		byID:       make(map[int64]*user.User),
		byEmail:    make(map[string]int64),
		byUsername: make(map[string]int64),
	}
}

// FindByEmail retrieves a user by email.
func (s *Store) FindByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	found := *s.byID[id]
	return &found, nil
}

// FindByUsername retrieves a user by username.
func (s *Store) FindByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	id, ok := s.byUsername[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	found := *s.byID[id]
	return &found, nil
}

// Save persists a new user, assigning its ID and creation timestamp. The
// email index is checked before the username index, matching the order
// the relational backends report constraint violations in.
func (s *Store) Save(_ context.Context, u *user.User) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	if _, exists := s.byEmail[u.Email]; exists {
		return nil, storage.ErrDuplicateEmail
	}
	if _, exists := s.byUsername[u.Username]; exists {
		return nil, storage.ErrDuplicateUsername
	}

	saved := *u
	saved.ID = s.nextID
	saved.CreatedAt = time.Now().UTC()
	s.nextID++

	s.byID[saved.ID] = &saved
	s.byEmail[saved.Email] = saved.ID
	s.byUsername[saved.Username] = saved.ID

	out := saved
	return &out, nil
}

// HealthCheck reports whether the store is usable.
func (s *Store) HealthCheck(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return storage.ErrClosed
	}
	return nil
}

// Close marks the store closed. Subsequent operations return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
