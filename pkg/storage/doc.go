// Package storage provides utilities shared across credential store
// implementations, currently the sentinel errors.
//
// Store backends (memory, postgres, sqlite) implement the user.Store
// interface defined in pkg/user. This package contains only shared types
// and helpers, not the interface itself.
package storage
