package storage

import "errors"

// Sentinel errors for credential store operations.
var (
	// ErrNotFound is returned when no identity matches the lookup key.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when saving an identity whose email is
	// already taken.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrDuplicateUsername is returned when saving an identity whose
	// username is already taken.
	ErrDuplicateUsername = errors.New("username already in use")

	// ErrClosed is returned by operations on a store that has been closed.
	ErrClosed = errors.New("store is closed")
)
