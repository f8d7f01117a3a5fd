package config

import (
	"os"
	"time"
)

// Config holds application configuration loaded from environment variables.
// Empty DatabaseURL and RedisURL select standalone mode: in-memory
// repositories with no external services.
type Config struct {
	Port         string
	DatabaseURL  string
	RedisURL     string
	TurnDeadline time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:         envOrDefault("PORT", "8009"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		TurnDeadline: durationOrDefault("TURN_DEADLINE", 2*time.Minute),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
