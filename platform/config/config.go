// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// RedisConfig provides settings for the redis-backed cache store.
type RedisConfig interface {
	GetRedisURL() string
}

// GeocodeConfig provides the geocoding resolution profile.
type GeocodeConfig interface {
	GetGeocodeProfile() GeocodeProfile
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL     string
	RedisURL        string
	JWTAccessSecret string

	CORSAllowAll bool
	CORSOrigins  []string

	Geocode GeocodeProfile
}

// Load reads configuration from the environment, applying defaults.
// A .env file is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),
		CORSAllowAll:    getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:     splitList(os.Getenv("CORS_ORIGINS")),
	}

	if cfg.JWTAccessSecret == "" && !strings.EqualFold(cfg.Env, "development") {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
	}

	profile := DefaultGeocodeProfile()
	if path := os.Getenv("GEOCODE_PROFILE"); path != "" {
		if err := profile.applyFile(path); err != nil {
			return nil, fmt.Errorf("load geocode profile %s: %w", path, err)
		}
	}
	if spacing := getEnvInt("GEOCODE_HOST_SPACING_MS", 0); spacing > 0 {
		profile.HostSpacing = time.Duration(spacing) * time.Millisecond
	}
	cfg.Geocode = profile

	return cfg, nil
}

// GetDatabaseURL returns the database connection URL.
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// GetJWTAccessSecret returns the JWT access token secret.
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// GetHTTPAddr returns the HTTP listen address.
func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }

// GetCORSAllowAll reports whether all origins are allowed.
func (c *Config) GetCORSAllowAll() bool { return c.CORSAllowAll }

// GetCORSOrigins returns the allowed CORS origins.
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// GetRedisURL returns the redis connection URL.
func (c *Config) GetRedisURL() string { return c.RedisURL }

// GetGeocodeProfile returns the geocoding resolution profile.
func (c *Config) GetGeocodeProfile() GeocodeProfile { return c.Geocode }

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
