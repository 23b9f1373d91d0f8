package config

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// minSigningKeyBytes is the shortest signing key Validate accepts. HS256
// keys shorter than the hash output weaken the MAC.
const minSigningKeyBytes = 32

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be a valid TCP port.
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// server.shutdown_timeout must not be negative.
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be >= 0, got %s", c.Server.ShutdownTimeout))
	}

	// A signing key is only required when token auth is on.
	if c.Auth.Enabled {
		if c.Auth.SigningKey == "" {
			errs = append(errs, fmt.Errorf("auth.signing_key or auth.signing_key_file is required when auth.enabled is true"))
		} else if len(c.Auth.SigningKey) < minSigningKeyBytes {
			errs = append(errs, fmt.Errorf("auth.signing_key must be at least %d bytes, got %d", minSigningKeyBytes, len(c.Auth.SigningKey)))
		}
	}

	// auth.token_ttl must be positive.
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be > 0, got %s", c.Auth.TokenTTL))
	}

	// auth.leeway must not be negative.
	if c.Auth.Leeway < 0 {
		errs = append(errs, fmt.Errorf("auth.leeway must be >= 0, got %s", c.Auth.Leeway))
	}

	// auth.login_axis must be a known value.
	switch c.Auth.LoginAxis {
	case "username", "email":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.login_axis must be \"username\" or \"email\", got %q", c.Auth.LoginAxis))
	}

	// auth.bcrypt_cost must be within the range the hasher accepts.
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost))
	}

	// storage.backend must be a known value.
	switch c.Storage.Backend {
	case "memory", "postgres", "sqlite":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be \"memory\", \"postgres\", or \"sqlite\", got %q", c.Storage.Backend))
	}

	// If storage.backend is "postgres", connection fields must be set.
	if c.Storage.Backend == "postgres" {
		if c.Storage.Postgres.Host == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.host is required when storage.backend is \"postgres\""))
		}
		if c.Storage.Postgres.Database == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.database is required when storage.backend is \"postgres\""))
		}
		if c.Storage.Postgres.Username == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.username is required when storage.backend is \"postgres\""))
		}
	}

	// If storage.backend is "sqlite", a database path must be set.
	if c.Storage.Backend == "sqlite" && c.Storage.SQLite.Path == "" {
		errs = append(errs, fmt.Errorf("storage.sqlite.path is required when storage.backend is \"sqlite\""))
	}

	// logging.level must be a known value.
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Logging.Level))
	}

	// logging.format must be a known value.
	switch c.Logging.Format {
	case "json", "text":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"json\" or \"text\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
