// Package password provides one-way, salted password hashing and
// constant-time verification.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes plaintext passwords and verifies them against stored
// hashes. Implementations must be safe for concurrent use.
type Hasher interface {
	// Hash returns a salted one-way derivation of the password. Two calls
	// with the same plaintext produce different strings.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the stored hash. A
	// malformed stored hash verifies false; Verify never panics and never
	// reports why verification failed.
	Verify(password, hash string) bool
}

// DefaultCost is the bcrypt cost used when none is configured.
const DefaultCost = 12

// BcryptHasher implements Hasher using bcrypt. Each hash embeds a fresh
// random salt and the cost it was produced with, so Verify needs no
// configuration of its own.
type BcryptHasher struct {
	cost int
}

var _ Hasher = (*BcryptHasher)(nil)

// Option configures the bcrypt hasher.
type Option func(*BcryptHasher)

// WithCost sets the bcrypt cost parameter. Values outside bcrypt's valid
// range (4..31) are ignored.
func WithCost(cost int) Option {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// NewBcryptHasher creates a bcrypt-based password hasher.
func NewBcryptHasher(opts ...Option) *BcryptHasher {
	h := &BcryptHasher{cost: DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash derives a salted hash from the password. Inputs beyond bcrypt's
// 72-byte limit are rejected rather than silently truncated.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password: must not be empty")
	}
	if len(password) > 72 {
		return "", fmt.Errorf("password: exceeds bcrypt's 72-byte limit")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

// Verify compares in constant time against the salt and cost embedded in
// the stored hash.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
