// Package debug provides category-based debug logging for the user
// service.
//
// Categories control WHAT to debug and come from the USERSVC_DEBUG
// environment variable or config. Levels (HOW MUCH detail) come from the
// logging config; ParseLevel converts the configured string.
//
// Usage:
//
//	debug.Log("storage", "lookup", "column", "email", "duration", d)
//	if debug.Enabled("auth") { /* expensive formatting */ }
//
// Categories: auth, storage, transport, config, all.
//
// Request bodies and credentials are never logged at any level; debug
// output is limited to operational detail.
package debug

import (
	"log/slog"
	"os"
	"strings"
)

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

func init() {
	// Initialize from environment for immediate availability.
	// Can be re-initialized later via Init() with config values.
	env := os.Getenv("USERSVC_DEBUG")
	categories = parseCategories(env)
}

// Init configures enabled categories at startup with values from config.
// The USERSVC_DEBUG environment variable takes precedence.
func Init(configCategories string) {
	cats := os.Getenv("USERSVC_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)
}

// Enabled reports whether debug output is active for the given category.
// This is a constant-time map lookup with zero allocation.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op (zero overhead).
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the list of enabled categories (for status reporting).
func Categories() []string {
	var result []string
	for k := range categories {
		result = append(result, k)
	}
	return result
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
