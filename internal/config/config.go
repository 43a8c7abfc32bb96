// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ServerHost string `env:"STB_SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort int    `env:"STB_SERVER_PORT" envDefault:"3000"`
	Env        string `env:"STB_ENV" envDefault:"development"`
	LogLevel   string `env:"STB_LOG_LEVEL" envDefault:"info"`

	// Process identity stamped onto every persisted log row.
	PodName string `env:"POD_NAME" envDefault:"local"`
	Version string `env:"VERSION"`

	// Log pipeline configuration
	Debug            []string `env:"DEBUG" envDefault:"*"`              // Console category allowlist
	LogBufferTimeMS  int      `env:"LOG_BUFFER_TIME" envDefault:"5000"` // Batch flush window in milliseconds
	LogRetentionDays int      `env:"LOG_RETENTION_DAYS" envDefault:"90"`

	// Session token signing
	JWTSecret string `env:"JWT_SECRET,required"`

	// User code hashing
	UserHashSalt string `env:"USER_HASH_SALT" envDefault:"STB_USER_ID"`

	// User cache idle eviction window in milliseconds.
	UserCacheIdleMS int `env:"USER_CACHE_IDLE" envDefault:"180000"`

	// Facebook Graph API credentials
	FacebookAppID      string `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret  string `env:"FACEBOOK_APP_SECRET"`
	FacebookAppToken   string `env:"FACEBOOK_APP_TOKEN"`
	FacebookAPIVersion string `env:"FACEBOOK_API_VERSION" envDefault:"v10.0"`

	// Database configuration
	DBDialect string `env:"DB_DIALECT" envDefault:"sqlite"` // sqlite or mysql
	DBPath    string `env:"DB_PATH" envDefault:"./data/stb.db"`
	DBDSN     string `env:"DB_DSN"` // MySQL DSN, required when DB_DIALECT=mysql
}

// EffectiveVersion returns the VERSION override when set, falling back
// to the build-time version otherwise.
func (c Config) EffectiveVersion(fallback string) string {
	if c.Version != "" {
		return c.Version
	}
	return fallback
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// LogBufferTime returns the batch flush window as a duration.
func (c Config) LogBufferTime() time.Duration {
	return time.Duration(c.LogBufferTimeMS) * time.Millisecond
}

// UserCacheIdle returns the user cache idle window as a duration.
func (c Config) UserCacheIdle() time.Duration {
	return time.Duration(c.UserCacheIdleMS) * time.Millisecond
}

// MinJWTSecretLength is the minimum accepted length for the token signing key.
const MinJWTSecretLength = 16

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	switch cfg.DBDialect {
	case "sqlite":
	case "mysql":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required when DB_DIALECT=mysql")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q (want sqlite or mysql)", cfg.DBDialect)
	}

	if cfg.LogBufferTimeMS <= 0 {
		return nil, fmt.Errorf("LOG_BUFFER_TIME must be positive, got %d", cfg.LogBufferTimeMS)
	}
	if cfg.UserCacheIdleMS <= 0 {
		return nil, fmt.Errorf("USER_CACHE_IDLE must be positive, got %d", cfg.UserCacheIdleMS)
	}

	return cfg, nil
}
