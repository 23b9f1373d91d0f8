// Package api defines the wire types for the user service HTTP API.
//
// This package provides the request/response payloads for registration,
// login, and profile lookup, the response messages those endpoints are
// contractually bound to, input validation, and the structured error
// envelope used for protocol-level failures.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
//
// Core types:
//   - [RegisterRequest] / [LoginRequest]: client credential payloads
//   - [LoginResponse]: issued token plus confirmation message
//   - [ProfileResponse]: public projection of an identity
//   - [MessageResponse]: single-message confirmation body
//   - [APIError]: structured error with type, code, param, and message
package api
