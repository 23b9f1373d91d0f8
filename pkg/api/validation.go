package api

import (
	"fmt"
	"strings"
)

// LoginAxis selects the identifier a deployment authenticates on. Exactly
// one axis is active per deployment; the two are never mixed.
type LoginAxis string

const (
	LoginAxisUsername LoginAxis = "username"
	LoginAxisEmail    LoginAxis = "email"
)

// Valid reports whether the axis is one of the supported values.
func (a LoginAxis) Valid() bool {
	return a == LoginAxisUsername || a == LoginAxisEmail
}

// Identifier returns the login identifier for the given axis.
func (r *LoginRequest) Identifier(axis LoginAxis) string {
	if axis == LoginAxisEmail {
		return r.Email
	}
	return r.Username
}

// ValidationConfig holds configurable limits for credential validation.
type ValidationConfig struct {
	MinPasswordLength int
	MaxPasswordLength int
	MinUsernameLength int
	MaxUsernameLength int
	MaxEmailLength    int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
// The password maximum is bcrypt's 72-byte input limit.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinPasswordLength: 8,
		MaxPasswordLength: 72,
		MinUsernameLength: 3,
		MaxUsernameLength: 32,
		MaxEmailLength:    254,
	}
}

// ValidateRegisterRequest checks a RegisterRequest for validity. It returns
// an *APIError describing the first validation failure, or nil if the
// request is valid.
func ValidateRegisterRequest(req *RegisterRequest, cfg ValidationConfig) *APIError {
	if req.Email == "" {
		return NewInvalidRequestError("email", "email is required")
	}
	if len(req.Email) > cfg.MaxEmailLength {
		return NewInvalidRequestError("email",
			fmt.Sprintf("email exceeds maximum of %d characters", cfg.MaxEmailLength))
	}
	if !validEmail(req.Email) {
		return NewInvalidRequestError("email", "email must be a valid address")
	}

	if req.Username == "" {
		return NewInvalidRequestError("username", "username is required")
	}
	if len(req.Username) < cfg.MinUsernameLength {
		return NewInvalidRequestError("username",
			fmt.Sprintf("username must be at least %d characters", cfg.MinUsernameLength))
	}
	if len(req.Username) > cfg.MaxUsernameLength {
		return NewInvalidRequestError("username",
			fmt.Sprintf("username exceeds maximum of %d characters", cfg.MaxUsernameLength))
	}
	if !validUsername(req.Username) {
		return NewInvalidRequestError("username",
			"username may only contain letters, digits, '.', '_', and '-'")
	}

	return validatePassword(req.Password, cfg)
}

// ValidateLoginRequest checks a LoginRequest for validity under the given
// login axis. It returns an *APIError describing the first validation
// failure, or nil if the request is valid.
func ValidateLoginRequest(req *LoginRequest, axis LoginAxis, cfg ValidationConfig) *APIError {
	if req.Identifier(axis) == "" {
		return NewInvalidRequestError(string(axis),
			fmt.Sprintf("%s is required", axis))
	}
	if req.Password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	return nil
}

func validatePassword(password string, cfg ValidationConfig) *APIError {
	if password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	if len(password) < cfg.MinPasswordLength {
		return NewInvalidRequestError("password",
			fmt.Sprintf("password must be at least %d characters", cfg.MinPasswordLength))
	}
	if len(password) > cfg.MaxPasswordLength {
		return NewInvalidRequestError("password",
			fmt.Sprintf("password exceeds maximum of %d bytes", cfg.MaxPasswordLength))
	}
	return nil
}

// validEmail performs a structural check: one '@' with non-empty local and
// domain parts and no whitespace. Deliverability is not this layer's job.
func validEmail(email string) bool {
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsRune(email[at+1:], '@')
}

func validUsername(username string) bool {
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
