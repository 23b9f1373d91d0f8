// Package user implements the registration and authentication core: the
// identity model, the credential store contract, and the service that
// orchestrates uniqueness checks, password hashing, credential
// verification, and token-subject resolution.
//
// The Service never stores or logs a plaintext password, and its
// authenticate path collapses "unknown identifier" and "wrong password"
// into one indistinguishable outcome.
package user
