// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultModel = "claude-sonnet-4-5-20250929"

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey  string
	Model            string
	DatabasePath     string
	LogLevel         string
	MaxSearchResults int
	Recipient        string
	DedupWindow      time.Duration
}

// Load reads configuration from the environment, after a best-effort
// load of a local .env file. The API key is validated separately via
// RequireAPIKey so memory-only commands work without one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		Model:            envOrDefault("AGENT_MODEL", defaultModel),
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/notify.db"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		MaxSearchResults: 5,
		Recipient:        envOrDefault("RECIPIENT", "default"),
		DedupWindow:      24 * time.Hour,
	}

	if raw := os.Getenv("MAX_SEARCH_RESULTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_SEARCH_RESULTS %q", raw)
		}
		cfg.MaxSearchResults = n
	}

	if raw := os.Getenv("DEDUP_WINDOW_HOURS"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h <= 0 {
			return nil, fmt.Errorf("invalid DEDUP_WINDOW_HOURS %q", raw)
		}
		cfg.DedupWindow = time.Duration(h) * time.Hour
	}

	return cfg, nil
}

// RequireAPIKey returns an error if no Anthropic API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
