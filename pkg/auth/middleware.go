package auth

import (
	"log/slog"
	"net/http"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/observability"
)

// Middleware creates the per-request authentication interceptor from an
// AuthChain. It establishes identity but never enforces it: on a missing,
// malformed, forged, or expired credential the request is forwarded
// unauthenticated, and the route-level guard (Require) decides whether
// that is acceptable. The interceptor therefore runs on every route,
// public ones included.
//
// A principal already present in the context is left untouched, so running
// the interceptor twice on one request cannot swap identities.
func Middleware(chain *AuthChain, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			switch result.Decision {
			case Yes:
				// Yes with no usable principal is an authenticator bug;
				// stay unauthenticated.
				if result.Principal == nil || result.Principal.Username == "" {
					logger.Error("authenticator returned empty principal",
						slog.String("path", r.URL.Path))
					observability.TokenAuthenticationsTotal.WithLabelValues("rejected").Inc()
					next.ServeHTTP(w, r)
					return
				}

				logger.Debug("request authenticated",
					slog.String("subject", result.Principal.Username),
					slog.String("path", r.URL.Path))
				observability.TokenAuthenticationsTotal.WithLabelValues("authenticated").Inc()

				ctx := SetPrincipal(r.Context(), result.Principal)
				next.ServeHTTP(w, r.WithContext(ctx))

			case No:
				logger.Debug("credentials rejected",
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
					slog.Any("error", result.Err))
				observability.TokenAuthenticationsTotal.WithLabelValues("rejected").Inc()
				next.ServeHTTP(w, r)

			default:
				observability.TokenAuthenticationsTotal.WithLabelValues("anonymous").Inc()
				next.ServeHTTP(w, r)
			}
		})
	}
}

// Require wraps a handler that must only run with an authenticated
// principal. It writes a generic 401 otherwise; the body never reveals
// whether the credential was missing, malformed, expired, or unresolvable.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"authentication required"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
