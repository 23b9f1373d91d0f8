// Package noop provides a no-op authenticator that accepts all requests.
// Used for local development when auth is disabled; never wire it into a
// production chain.
package noop

import (
	"context"
	"net/http"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth"
)

// Authenticator always returns Yes with a fixed development principal.
type Authenticator struct{}

func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	return auth.AuthResult{
		Decision: auth.Yes,
		Principal: &auth.Principal{
			UserID:   0,
			Email:    "dev@localhost",
			Username: "anonymous",
		},
	}
}
