package auth

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// AuthDecision represents the three possible outcomes of authentication.
type AuthDecision int

const (
	// Yes means credentials are valid. The chain stops and the principal is used.
	Yes AuthDecision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request proceeds unauthenticated.
	No

	// Abstain means this authenticator cannot handle the credentials type.
	// The chain continues to the next authenticator.
	Abstain
)

// AuthResult carries the outcome of an authentication attempt.
type AuthResult struct {
	Decision  AuthDecision
	Principal *Principal // populated only when Decision == Yes
	Err       error      // populated only when Decision == No
}

// Principal is the resolved identity attached to one in-flight request.
// It is the public projection of a live user record, so handlers can serve
// it directly without a second store lookup. It is never persisted and
// never shared across requests.
type Principal struct {
	// UserID is the store-assigned numeric identifier.
	UserID int64

	// Email is the unique email address.
	Email string

	// Username is the unique handle; it is also the token subject.
	Username string

	// CreatedAt is when the identity was registered.
	CreatedAt time.Time
}

// Authenticator examines request credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

// Resolver fetches the live principal for a token subject. Implementations
// return a nil Principal with a nil error when the subject no longer
// exists; the error return is reserved for store failures. Either way the
// caller must fail closed.
type Resolver interface {
	ResolveSubject(ctx context.Context, subject string) (*Principal, error)
}

// ErrUnauthenticated is the generic error for requests that reach a
// protected route without a principal.
var ErrUnauthenticated = errors.New("authentication required")

// AuthChain evaluates authenticators in order using three-outcome voting.
type AuthChain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator
}

// Authenticate runs the chain. Stops on the first Yes or No. If all
// abstain, the result is Abstain and the request stays anonymous.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}
	return AuthResult{Decision: Abstain}
}
