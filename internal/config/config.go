// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Sessions
	SessionTTL    time.Duration
	SweepInterval time.Duration

	// Share links
	ShareTokenSecret string
	ShareTokenTTL    time.Duration

	// Receipt parsing (vision model)
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
	ParseTimeout     time.Duration

	// Upload limit for receipt images, in bytes (pre-base64 size).
	MaxImageBytes int64
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),

		ShareTokenSecret: getEnv("SHARE_TOKEN_SECRET", ""),
		ShareTokenTTL:    getEnvDuration("SHARE_TOKEN_TTL", 24*time.Hour),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", ""),
		ParseTimeout:     getEnvDuration("PARSE_TIMEOUT", 45*time.Second),

		MaxImageBytes: getEnvInt64("MAX_IMAGE_BYTES", 4<<20),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		problems = append(problems, "SWEEP_INTERVAL must be positive")
	}
	if c.ShareTokenTTL <= 0 {
		problems = append(problems, "SHARE_TOKEN_TTL must be positive")
	}
	if c.MaxImageBytes <= 0 {
		problems = append(problems, "MAX_IMAGE_BYTES must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
