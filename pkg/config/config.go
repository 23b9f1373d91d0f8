// Package config provides unified configuration for the user service.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (USERSVC_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all configuration for the user service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`             // default: "0.0.0.0"
	Port            int           `yaml:"port"`             // default: 8080
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// Addr returns the host:port the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig holds token issuance and validation settings.
type AuthConfig struct {
	// Enabled selects real bearer-token authentication. When false the
	// noop authenticator is wired instead; development only.
	Enabled bool `yaml:"enabled"` // default: true

	SigningKey     string `yaml:"signing_key"`
	SigningKeyFile string `yaml:"signing_key_file"` // wins over signing_key when set

	TokenTTL time.Duration `yaml:"token_ttl"` // default: 24h
	Leeway   time.Duration `yaml:"leeway"`    // default: 0 (strict expiry)

	// LoginAxis is the identifier users authenticate with: "username"
	// (default) or "email". One axis per deployment.
	LoginAxis string `yaml:"login_axis"`

	BcryptCost int `yaml:"bcrypt_cost"` // default: 12
}

// StorageConfig holds credential store settings.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "memory", "postgres", or "sqlite", default: "memory"

	// MigrateOnStart applies schema migrations when the store opens.
	// Default: true. Disable when migrations are run out of band.
	MigrateOnStart bool `yaml:"migrate_on_start"`

	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // wins over password when set
	SSLMode      string `yaml:"ssl_mode"`      // default: "prefer"
	MaxConns     int32  `yaml:"max_conns"`     // default: 10
	MinConns     int32  `yaml:"min_conns"`     // default: 2
}

// DSN builds the pgx connection string from the individual fields.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.User(p.Username),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   p.Database,
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	if p.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", p.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", or "error", default: "info"
	Format string `yaml:"format"` // "json" or "text", default: "json"

	// Debug enables category-gated debug output: a comma-separated list
	// of categories (auth, storage, transport, config, all). Category
	// output is emitted at debug level, so it only appears when Level is
	// "debug". The USERSVC_DEBUG environment variable takes precedence.
	Debug string `yaml:"debug"`
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:    true,
			TokenTTL:   24 * time.Hour,
			Leeway:     0,
			LoginAxis:  "username",
			BcryptCost: 12,
		},
		Storage: StorageConfig{
			Backend:        "memory",
			MigrateOnStart: true,
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "users",
				Username: "usersvc",
				SSLMode:  "prefer",
				MaxConns: 10,
				MinConns: 2,
			},
			SQLite: SQLiteConfig{
				Path: "users.db",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
