package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, USERSVC_CONFIG env, ./config.yaml, /etc/usersvc/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "config file loaded", "path", filePath)
	} else {
		debug.Log("config", "no config file found; using defaults and environment")
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. USERSVC_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/usersvc/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check USERSVC_CONFIG env var.
	if envPath := os.Getenv("USERSVC_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/usersvc/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps USERSVC_* environment variables to config fields.
// Env vars win over both defaults and file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("USERSVC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("USERSVC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("USERSVC_AUTH_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Auth.Enabled = enabled
		}
	}
	if v := os.Getenv("USERSVC_AUTH_SIGNING_KEY"); v != "" {
		cfg.Auth.SigningKey = v
	}
	if v := os.Getenv("USERSVC_AUTH_SIGNING_KEY_FILE"); v != "" {
		cfg.Auth.SigningKeyFile = v
	}
	if v := os.Getenv("USERSVC_AUTH_TOKEN_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = ttl
		}
	}
	if v := os.Getenv("USERSVC_AUTH_LOGIN_AXIS"); v != "" {
		cfg.Auth.LoginAxis = v
	}

	if v := os.Getenv("USERSVC_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("USERSVC_STORAGE_POSTGRES_HOST"); v != "" {
		cfg.Storage.Postgres.Host = v
	}
	if v := os.Getenv("USERSVC_STORAGE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.Port = port
		}
	}
	if v := os.Getenv("USERSVC_STORAGE_POSTGRES_DATABASE"); v != "" {
		cfg.Storage.Postgres.Database = v
	}
	if v := os.Getenv("USERSVC_STORAGE_POSTGRES_USERNAME"); v != "" {
		cfg.Storage.Postgres.Username = v
	}
	if v := os.Getenv("USERSVC_STORAGE_POSTGRES_PASSWORD"); v != "" {
		cfg.Storage.Postgres.Password = v
	}
	if v := os.Getenv("USERSVC_STORAGE_POSTGRES_PASSWORD_FILE"); v != "" {
		cfg.Storage.Postgres.PasswordFile = v
	}
	if v := os.Getenv("USERSVC_STORAGE_POSTGRES_SSL_MODE"); v != "" {
		cfg.Storage.Postgres.SSLMode = v
	}
	if v := os.Getenv("USERSVC_STORAGE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}

	if v := os.Getenv("USERSVC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("USERSVC_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. The file wins when both are set: mounted secrets must not
// be shadowed by a stale inline value.
func resolveFileReferences(cfg *Config) error {
	// auth.signing_key_file -> auth.signing_key
	if cfg.Auth.SigningKeyFile != "" {
		val, err := readSecretFile(cfg.Auth.SigningKeyFile)
		if err != nil {
			return fmt.Errorf("auth.signing_key_file: %w", err)
		}
		cfg.Auth.SigningKey = val
	}

	// storage.postgres.password_file -> storage.postgres.password
	if cfg.Storage.Postgres.PasswordFile != "" {
		val, err := readSecretFile(cfg.Storage.Postgres.PasswordFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.password_file: %w", err)
		}
		cfg.Storage.Postgres.Password = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
