// Package jwt provides the symmetric token codec and the bearer-token
// authenticator built on it.
//
// Tokens are HMAC-SHA256 signed JWTs carrying the subject (username),
// expiry, and issued-at instants. Parse verifies the signature and the
// declared algorithm before trusting any claim, enforces expiry up to the
// configured leeway, and rejects structurally malformed input. Signature,
// expiry, and structure are independent rejection conditions.
package jwt

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/debug"
)

// Config holds the token codec configuration.
type Config struct {
	// SigningKey is the symmetric HMAC secret. Required.
	SigningKey []byte

	// TokenTTL is the lifetime of issued tokens when the caller does not
	// specify one. Default: 24h.
	TokenTTL time.Duration

	// Leeway is the clock-skew tolerance applied when validating expiry.
	// Zero (the default) means strict expiry: a token is invalid the
	// moment its expiration instant is reached. Set this only for
	// deployments behind clocks known to drift.
	Leeway time.Duration

	// Now allows injecting a clock (useful for testing). If nil, time.Now
	// is used.
	Now func() time.Time
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Claims is the validated content of a parsed token. JWT numeric dates
// carry second precision, so both instants are truncated to the second.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Codec issues and parses signed bearer tokens. It is stateless beyond
// its configuration and safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec creates a token codec with the given configuration.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, fmt.Errorf("jwt: signing key must not be empty")
	}
	cfg.applyDefaults()
	return &Codec{config: cfg}, nil
}

// Issue creates a signed token asserting the subject until now + ttl.
// A non-positive ttl falls back to the configured default.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("jwt: subject must not be empty")
	}
	if ttl <= 0 {
		ttl = c.config.TokenTTL
	}

	now := c.config.Now()
	claims := jwtlib.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.config.SigningKey)
	if err != nil {
		return "", fmt.Errorf("jwt: signing token: %w", err)
	}
	debug.Log("auth", "token issued", "subject", subject, "expires_at", claims.ExpiresAt.Time)
	return signed, nil
}

// Parse verifies a token string and returns its claims. It rejects
// signature mismatches, expired tokens, and malformed input; the returned
// error says which, but callers surfacing it to clients must collapse all
// three into one generic failure.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(tokenString, &jwtlib.RegisteredClaims{},
		func(token *jwtlib.Token) (interface{}, error) {
			// The declared algorithm must be HMAC before the key is
			// handed over; WithValidMethods narrows it to HS256.
			if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return c.config.SigningKey, nil
		},
		c.parserOptions()...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(*jwtlib.RegisteredClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("token missing expiry")
	}

	out := &Claims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// parserOptions builds the JWT parser options from the configuration.
func (c *Codec) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(c.config.Now),
	}
	if c.config.Leeway > 0 {
		opts = append(opts, jwtlib.WithLeeway(c.config.Leeway))
	}
	return opts
}

// BearerAuthenticator validates Authorization bearer tokens with a Codec
// and resolves their subject to a live principal, so a deleted or renamed
// account cannot keep authenticating on a still-unexpired token.
type BearerAuthenticator struct {
	codec    *Codec
	resolver auth.Resolver
	logger   *slog.Logger
}

// NewBearerAuthenticator creates a bearer-token authenticator. Both the
// codec and the resolver are required.
func NewBearerAuthenticator(codec *Codec, resolver auth.Resolver, logger *slog.Logger) (*BearerAuthenticator, error) {
	if codec == nil {
		return nil, fmt.Errorf("jwt: codec must not be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("jwt: resolver must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BearerAuthenticator{codec: codec, resolver: resolver, logger: logger}, nil
}

// Authenticate extracts a bearer token from the Authorization header,
// parses it, and resolves the subject.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: bearer token present but invalid, or its subject no longer exists
//   - Yes: valid token with a live, resolved principal
func (a *BearerAuthenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	// Must be Bearer token.
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("empty bearer token"),
		}
	}

	claims, err := a.codec.Parse(tokenStr)
	if err != nil {
		// Log the failure, never the token.
		a.logger.Debug("token validation failed", slog.Any("error", err))
		return auth.AuthResult{Decision: auth.No, Err: err}
	}

	principal, err := a.resolver.ResolveSubject(ctx, claims.Subject)
	if err != nil {
		a.logger.Warn("subject resolution failed",
			slog.String("subject", claims.Subject),
			slog.Any("error", err))
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("resolving subject: %w", err),
		}
	}
	if principal == nil {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("subject %q no longer exists", claims.Subject),
		}
	}

	return auth.AuthResult{Decision: auth.Yes, Principal: principal}
}
