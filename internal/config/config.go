// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	HTTPPort    int      `env:"HTTP_PORT" envDefault:"8000"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*"`

	YahooBaseURL    string `env:"YAHOO_BASE_URL" envDefault:""`
	RequestTimeout  int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec  int    `env:"REQUESTS_PER_SEC" envDefault:"5"`
	MaxRetryTimeout int    `env:"MAX_RETRY_TIMEOUT" envDefault:"30"` // seconds

	CacheBackend  string `env:"CACHE_BACKEND" envDefault:"memory"` // memory or redis
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"300"`        // seconds
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// One-shot CLI parameters.
	Symbol     string `env:"SYMBOL" envDefault:"AAPL"`
	TargetDate string `env:"TARGET_DATE" envDefault:""`
}

// Load initializes configuration from environment variables.
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{}
	cfg.HTTPPort = getEnvIntWithDefault("HTTP_PORT", 8000)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.CORSOrigins = splitAndTrim(getEnvWithDefault("CORS_ORIGINS", "*"))

	cfg.YahooBaseURL = os.Getenv("YAHOO_BASE_URL")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.MaxRetryTimeout = getEnvIntWithDefault("MAX_RETRY_TIMEOUT", 30)

	cfg.CacheBackend = getEnvWithDefault("CACHE_BACKEND", "memory")
	cfg.CacheTTL = getEnvIntWithDefault("CACHE_TTL", 300)
	cfg.RedisAddr = getEnvWithDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", 0)

	cfg.Symbol = getEnvWithDefault("SYMBOL", "AAPL")
	cfg.TargetDate = os.Getenv("TARGET_DATE")

	return cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
