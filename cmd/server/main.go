// Command server runs the user service: registration, login, and
// token-protected profile access over HTTP.
//
// Configuration is layered: built-in defaults, an optional YAML file
// (-config flag, USERSVC_CONFIG, ./config.yaml, /etc/usersvc/config.yaml),
// then USERSVC_* environment overrides. See pkg/config for the full set.
// The ones that matter most:
//
//	USERSVC_SERVER_PORT          - Listen port (default: 8080)
//	USERSVC_AUTH_SIGNING_KEY     - HMAC token secret, >= 32 bytes (required)
//	USERSVC_AUTH_LOGIN_AXIS      - Login identifier: "username" or "email"
//	USERSVC_STORAGE_BACKEND      - "memory", "postgres", or "sqlite"
//	USERSVC_DEBUG                - Debug categories, e.g. "storage,auth" or "all"
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/api"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth/jwt"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth/noop"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/auth/password"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/config"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/debug"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage/memory"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage/postgres"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/storage/sqlite"
	transporthttp "github.com/fernandofot/ecommerce-monitoring-app/pkg/transport/http"
	"github.com/fernandofot/ecommerce-monitoring-app/pkg/user"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	debug.Init(cfg.Logging.Debug)
	if cats := debug.Categories(); len(cats) > 0 {
		logger.Info("debug logging enabled", slog.Any("categories", cats))
	}

	// Store startup includes connectivity checks and migrations; bound it.
	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(startCtx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()
	logger.Info("store ready", slog.String("backend", cfg.Storage.Backend))

	hasher := password.NewBcryptHasher(password.WithCost(cfg.Auth.BcryptCost))

	svc, err := user.NewService(store, hasher,
		user.WithLoginAxis(api.LoginAxis(cfg.Auth.LoginAxis)),
		user.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating user service: %w", err)
	}

	signingKey := []byte(cfg.Auth.SigningKey)
	if len(signingKey) == 0 && !cfg.Auth.Enabled {
		// Auth is off and no key was configured. Login still issues
		// tokens, so mint an ephemeral key; it dies with the process.
		signingKey = make([]byte, 32)
		if _, err := rand.Read(signingKey); err != nil {
			return fmt.Errorf("generating ephemeral signing key: %w", err)
		}
		logger.Warn("no signing key configured; issued tokens will not survive a restart")
	}

	codec, err := jwt.NewCodec(jwt.Config{
		SigningKey: signingKey,
		TokenTTL:   cfg.Auth.TokenTTL,
		Leeway:     cfg.Auth.Leeway,
	})
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	var chain *auth.AuthChain
	if cfg.Auth.Enabled {
		bearer, err := jwt.NewBearerAuthenticator(codec, svc, logger)
		if err != nil {
			return fmt.Errorf("creating bearer authenticator: %w", err)
		}
		chain = &auth.AuthChain{Authenticators: []auth.Authenticator{bearer}}
	} else {
		logger.Warn("authentication disabled; all requests run as the development principal")
		chain = &auth.AuthChain{Authenticators: []auth.Authenticator{&noop.Authenticator{}}}
	}

	srv, err := transporthttp.NewServer(svc, codec, store, chain,
		transporthttp.WithAddr(cfg.Server.Addr()),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("user service starting",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("login_axis", cfg.Auth.LoginAxis),
		slog.Bool("auth_enabled", cfg.Auth.Enabled),
	)
	return srv.ListenAndServe()
}

// openStore creates the configured credential store backend.
func openStore(ctx context.Context, cfg config.StorageConfig) (user.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(), nil
	case "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN(),
			MaxConns:       cfg.Postgres.MaxConns,
			MinConns:       cfg.Postgres.MinConns,
			MigrateOnStart: cfg.MigrateOnStart,
		})
	case "sqlite":
		return sqlite.New(ctx, sqlite.Config{
			Path:           cfg.SQLite.Path,
			MigrateOnStart: cfg.MigrateOnStart,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: debug.ParseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
