// Package config gathers runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/pyquest/internal/identity"
	"github.com/abhisek/pyquest/internal/store"
)

// DefaultAutosave is how often an interactive session saves.
const DefaultAutosave = 2 * time.Minute

// Config holds application configuration.
type Config struct {
	// DBPath is the local database file. Empty means the default data
	// directory.
	DBPath string

	RemoteDriver string
	RemoteDSN    string

	JWTSecret  string
	SessionTTL time.Duration

	// Autosave is the interval between background saves; zero disables.
	Autosave time.Duration

	// CatalogPath replaces the embedded catalog when set.
	CatalogPath string

	LogLevel slog.Level
}

// RemoteConfigured reports whether a usable remote database is set.
func (c *Config) RemoteConfigured() bool {
	return !store.IsPlaceholder(c.RemoteDSN)
}

// Load reads .env files (if present) and then the environment. Variables
// already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables with defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:       os.Getenv("PYQUEST_DB"),
		RemoteDriver: getEnv("PYQUEST_REMOTE_DRIVER", store.DriverPostgres),
		RemoteDSN:    os.Getenv("PYQUEST_REMOTE_DSN"),
		JWTSecret:    os.Getenv("PYQUEST_JWT_SECRET"),
		CatalogPath:  os.Getenv("PYQUEST_CATALOG"),
		LogLevel:     slog.LevelWarn,
	}

	var err error
	if cfg.SessionTTL, err = getDuration("PYQUEST_SESSION_TTL", identity.DefaultSessionTTL); err != nil {
		return nil, err
	}
	if cfg.Autosave, err = getDuration("PYQUEST_AUTOSAVE", DefaultAutosave); err != nil {
		return nil, err
	}
	if v := os.Getenv("PYQUEST_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("PYQUEST_LOG_LEVEL: %w", err)
		}
	}

	switch cfg.RemoteDriver {
	case store.DriverPostgres, store.DriverMySQL, store.DriverSQLite:
	default:
		return nil, fmt.Errorf("PYQUEST_REMOTE_DRIVER: unsupported driver %q", cfg.RemoteDriver)
	}
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getDuration parses a Go duration. A bare "0" disables the setting.
func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}
