// Package transport defines the handler contracts and middleware chain for
// the user service HTTP transport layer.
//
// The transport layer bridges external clients and the registration and
// authentication core. It deserializes incoming requests into the wire
// types defined in pkg/api, dispatches them to the account service, and
// serializes responses back to the client as JSON.
//
// # Handler Contracts
//
// Three interfaces define the contract between the transport layer and the
// core:
//
//   - AccountService handles registration and credential verification.
//   - TokenIssuer mints bearer tokens for authenticated logins.
//   - HealthChecker reports whether the backing store is reachable.
//
// The HTTP adapter in pkg/transport/http consumes these interfaces; it
// never touches the store or the hasher directly.
//
// # Middleware
//
// Middleware wraps http.Handler with cross-cutting concerns. Built-in
// middleware provides panic recovery, request ID assignment (X-Request-ID),
// and structured logging via log/slog. Request metrics are provided
// separately by pkg/observability so the two layers can be composed in
// either order.
package transport
