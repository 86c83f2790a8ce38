// Package config loads portal configuration from the environment,
// with optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all portal configuration
type Config struct {
	// ListenAddr is the HTTP listen address (default :8080)
	ListenAddr string

	// BaseURL is the externally visible portal URL, used to build the
	// OAuth redirect URL (default http://localhost:8080)
	BaseURL string

	// StorageType selects the storage backend ("memory" or "mysql")
	StorageType string

	// MySQL connection settings (required when StorageType is mysql)
	MySQLHost     string
	MySQLPort     int
	MySQLDatabase string
	MySQLUser     string
	MySQLPassword string

	// RateLimiterType selects the rate limiter backend ("memory" or "redis")
	RateLimiterType string
	RedisURL        string

	// Discord application credentials
	DiscordClientID     string
	DiscordClientSecret string

	// VerificationWindow overrides the verification session lifetime
	// (default 5m)
	VerificationWindow time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables take precedence over it.
func Load() (*Config, error) {
	// Ignore a missing .env; production sets real env vars
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:          envOr("LISTEN_ADDR", ":8080"),
		BaseURL:             envOr("BASE_URL", "http://localhost:8080"),
		StorageType:         envOr("STORAGE_TYPE", "memory"),
		MySQLHost:           envOr("MYSQL_HOST", "localhost"),
		MySQLDatabase:       os.Getenv("MYSQL_DATABASE"),
		MySQLUser:           os.Getenv("MYSQL_USER"),
		MySQLPassword:       os.Getenv("MYSQL_PASSWORD"),
		RateLimiterType:     envOr("RATE_LIMITER_TYPE", "memory"),
		RedisURL:            os.Getenv("REDIS_URL"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
	}

	port, err := envIntOr("MYSQL_PORT", 3306)
	if err != nil {
		return nil, err
	}
	cfg.MySQLPort = port

	if raw := os.Getenv("VERIFICATION_WINDOW"); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing VERIFICATION_WINDOW: %w", err)
		}
		cfg.VerificationWindow = window
	}

	if cfg.StorageType == "mysql" {
		if cfg.MySQLDatabase == "" || cfg.MySQLUser == "" {
			return nil, fmt.Errorf("MYSQL_DATABASE and MYSQL_USER required when STORAGE_TYPE=mysql")
		}
	}
	if cfg.RateLimiterType == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL required when RATE_LIMITER_TYPE=redis")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envIntOr(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return val, nil
}
