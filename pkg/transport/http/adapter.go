package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/api"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/debug"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/observability"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/transport"
)

// Adapter serves the user service API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	accounts   transport.AccountService
	issuer     transport.TokenIssuer
	health     transport.HealthChecker
	chain      *auth.AuthChain
	logger     *slog.Logger
	mux        *http.ServeMux
	config     Config
	validation api.ValidationConfig
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MiB; credential payloads are tiny
	}
}

// NewAdapter creates an HTTP adapter for the given account service.
// The token issuer is required: login cannot succeed without minting a
// token. The health checker is optional; when nil, /health reports only
// process liveness. The auth chain is optional; when nil, no principal is
// ever attached and /api/auth/profile always rejects.
func NewAdapter(accounts transport.AccountService, issuer transport.TokenIssuer, health transport.HealthChecker, chain *auth.AuthChain, cfg Config, logger *slog.Logger) (*Adapter, error) {
	if accounts == nil {
		return nil, errors.New("account service is required")
	}
	if issuer == nil {
		return nil, errors.New("token issuer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		accounts:   accounts,
		issuer:     issuer,
		health:     health,
		chain:      chain,
		logger:     logger,
		mux:        http.NewServeMux(),
		config:     cfg,
		validation: api.DefaultValidationConfig(),
	}

	a.mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	a.mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	a.mux.Handle("GET /api/auth/profile", auth.Require(http.HandlerFunc(a.handleProfile)))
	a.mux.HandleFunc("GET /api/auth/hello", a.handleHello)
	a.mux.HandleFunc("GET /health", a.handleHealth)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	return a, nil
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// the identity interceptor, which attaches a principal when valid bearer
// credentials are present and otherwise forwards the request untouched.
// Route-level enforcement stays with auth.Require.
func (a *Adapter) Handler() http.Handler {
	var h http.Handler = a.mux
	if a.chain != nil {
		h = auth.Middleware(a.chain, a.logger)(h)
	}
	return h
}

// handleRegister handles POST /api/auth/register.
func (a *Adapter) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	if apiErr := api.ValidateRegisterRequest(&req, a.validation); apiErr != nil {
		transport.WriteErrorResponse(w, apiErr, http.StatusBadRequest)
		return
	}

	_, err := a.accounts.Register(r.Context(), req.Email, req.Username, req.Password)
	switch {
	case errors.Is(err, storage.ErrDuplicateEmail):
		observability.RegistrationsTotal.WithLabelValues("duplicate_email").Inc()
		writeMessage(w, http.StatusConflict, api.MessageEmailInUse)
	case errors.Is(err, storage.ErrDuplicateUsername):
		observability.RegistrationsTotal.WithLabelValues("duplicate_username").Inc()
		writeMessage(w, http.StatusConflict, api.MessageUsernameInUse)
	case err != nil:
		observability.RegistrationsTotal.WithLabelValues("error").Inc()
		a.logger.Error("registration failed",
			slog.String("error", err.Error()),
			slog.String("request_id", transport.RequestIDFromContext(r.Context())),
		)
		transport.WriteAPIError(w, api.NewServerError("registration failed"))
	default:
		observability.RegistrationsTotal.WithLabelValues("created").Inc()
		writeMessage(w, http.StatusCreated, api.MessageUserRegistered)
	}
}

// handleLogin handles POST /api/auth/login.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	axis := a.accounts.LoginAxis()
	if apiErr := api.ValidateLoginRequest(&req, axis, a.validation); apiErr != nil {
		transport.WriteErrorResponse(w, apiErr, http.StatusBadRequest)
		return
	}

	u, err := a.accounts.Authenticate(r.Context(), req.Identifier(axis), req.Password)
	if err != nil {
		observability.LoginsTotal.WithLabelValues("error").Inc()
		a.logger.Error("login lookup failed",
			slog.String("error", err.Error()),
			slog.String("request_id", transport.RequestIDFromContext(r.Context())),
		)
		transport.WriteAPIError(w, api.NewServerError("login failed"))
		return
	}
	if u == nil {
		// Unknown identifier and wrong password collapse into the same
		// response; nothing here may distinguish them.
		observability.LoginsTotal.WithLabelValues("failure").Inc()
		writeMessage(w, http.StatusUnauthorized, api.MessageInvalidCredentials)
		return
	}

	token, err := a.issuer.Issue(u.Username, 0)
	if err != nil {
		observability.LoginsTotal.WithLabelValues("error").Inc()
		a.logger.Error("token issuance failed",
			slog.String("error", err.Error()),
			slog.String("request_id", transport.RequestIDFromContext(r.Context())),
		)
		transport.WriteAPIError(w, api.NewServerError("login failed"))
		return
	}

	observability.LoginsTotal.WithLabelValues("success").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(api.LoginResponse{
		Token:   token,
		Message: api.MessageLoginSuccessful,
	})
}

// handleProfile handles GET /api/auth/profile. The route is wrapped in
// auth.Require, so a principal is present by the time this runs. The
// principal was resolved from the store during authentication; rendering
// it directly avoids a second lookup.
func (a *Adapter) handleProfile(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		transport.WriteAPIError(w, api.NewAuthenticationError("authentication required"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(api.ProfileResponse{
		ID:        p.UserID,
		Email:     p.Email,
		Username:  p.Username,
		CreatedAt: p.CreatedAt,
	})
}

// handleHello handles GET /api/auth/hello, the plain-text liveness probe.
func (a *Adapter) handleHello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Hello from the User Service!")
}

// handleHealth handles GET /health. It reports unhealthy when the backing
// store fails its health check.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := api.HealthResponse{Status: "healthy"}

	if a.health != nil {
		if err := a.health.HealthCheck(r.Context()); err != nil {
			a.logger.Warn("health check failed", slog.String("error", err.Error()))
			status = http.StatusServiceUnavailable
			body = api.HealthResponse{Status: "unhealthy"}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// decodeJSON validates the content type, caps the body size, and decodes
// the request body into dst. On failure it writes the appropriate error
// response and returns false.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		debug.Log("transport", "request rejected", "reason", "content type", "content_type", ct, "path", r.URL.Path)
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			debug.Log("transport", "request rejected", "reason", "body too large", "limit", a.config.MaxBodySize, "path", r.URL.Path)
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return false
	}

	return true
}

// writeMessage writes one of the contractual single-message bodies.
func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.MessageResponse{Message: message})
}
