// Package auth establishes the per-request authenticated principal.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (principal resolved), No
// (credentials invalid), or Abstain (can't handle). The interceptor
// middleware attaches the principal to the request context on Yes and
// forwards the request unauthenticated otherwise; it never rejects.
// Enforcement is separate: Require guards the routes that demand an
// authenticated caller.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from the
// registration and login flows.
package auth
