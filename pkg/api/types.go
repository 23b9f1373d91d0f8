package api

import "time"

// Response messages are part of the wire contract and must not drift; the
// traffic generator and downstream dashboards match on them verbatim.
const (
	MessageUserRegistered     = "User registered successfully!"
	MessageEmailInUse         = "Email already in use."
	MessageUsernameInUse      = "Username already in use."
	MessageLoginSuccessful    = "Login successful!"
	MessageInvalidCredentials = "Invalid username or password."
)

// RegisterRequest is the payload for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /api/auth/login. A deployment
// authenticates on exactly one identifier axis (username or email); the
// field for the other axis is ignored.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token after a successful login.
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// MessageResponse is a single-message confirmation or failure body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProfileResponse is the public projection of an identity. It never carries
// the password hash.
type ProfileResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// HealthResponse reports service and store health.
type HealthResponse struct {
	Status string `json:"status"`
}
