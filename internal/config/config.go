// Package config provides environment-driven configuration for the access panel.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL    Secret
	Port           string
	ListenHost     string
	CORSOrigins    []string
	LogLevel       string
	JWTSecret      Secret
	AccessTokenTTL int // seconds
	BootstrapToken Secret
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    Secret(envOrDefault("DATABASE_URL", "")),
		Port:           envOrDefault("PORT", "8080"),
		ListenHost:     envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		JWTSecret:      Secret(envOrDefault("JWT_SECRET", "")),
		BootstrapToken: Secret(envOrDefault("BOOTSTRAP_TOKEN", "")),
	}

	ttl, err := strconv.Atoi(envOrDefault("ACCESS_TOKEN_TTL_SECONDS", "3600"))
	if err != nil || ttl < 60 || ttl > 86400 {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL_SECONDS must be an integer between 60 and 86400")
	}
	cfg.AccessTokenTTL = ttl

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:5173")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
