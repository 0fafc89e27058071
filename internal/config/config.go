package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	API    APIConfig
	Logger LoggerConfig
	State  StateConfig
}

// APIConfig holds backend endpoint configuration. BaseURL, when set,
// overrides all hostname-based defaulting.
type APIConfig struct {
	BaseURL     string
	ProdBaseURL string
	Hostname    string // deployment hostname used for local/prod defaulting
	Timeout     int    // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// StateConfig holds persisted client state configuration.
type StateConfig struct {
	File string
}

// Load loads configuration from a .env file (if present) and
// environment variables.
func Load() (*Config, error) {
	// Missing .env is fine; env vars take precedence anyway.
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL:     getEnv("SHOP_API_URL", ""),
			ProdBaseURL: getEnv("SHOP_PROD_API_URL", ""),
			Hostname:    getEnv("SHOP_HOSTNAME", "localhost"),
			Timeout:     getEnvAsInt("SHOP_API_TIMEOUT", 10),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		State: StateConfig{
			File: getEnv("SHOP_STATE_FILE", defaultStateFile()),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.Timeout < 1 {
		return fmt.Errorf("invalid API timeout: %d", c.API.Timeout)
	}

	if c.API.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}

	if c.State.File == "" {
		return fmt.Errorf("state file path is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// defaultStateFile returns the default persisted-state location under
// the user's config directory.
func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "shopfront", "state.json")
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
