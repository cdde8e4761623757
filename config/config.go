/*
config.go - Environment-driven runtime configuration

PURPOSE:
  Collects every runtime knob for the claims engine in one struct.
  Values come from environment variables, with an optional .env file
  loaded first so local development does not need exported shells.

CONFIGURATION SOURCES (highest wins):
  1. Real environment variables
  2. .env file in the working directory (optional, via godotenv)
  3. Built-in defaults

VARIABLES:
  PORT                   HTTP listen port (default 8080)
  DB_PATH                SQLite database path (default claims.db)
  LOG_FORMAT             "text" or "json" (default text)
  DIGITIZATION_API_URL   Document digitization provider base URL
  DIGITIZATION_API_KEY   Provider API key
  OPENAI_API_URL         Chat-completion base URL (default OpenAI)
  OPENAI_API_KEY         Chat-completion API key
  OPENAI_MODEL           Model name (default gpt-4o-mini)

SEE ALSO:
  - cmd/server/main.go: Loads config at startup
  - digitize/digitizer.go, match/client.go: Consumers of the URLs/keys
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the server.
type Config struct {
	Port      int
	DBPath    string
	LogFormat string // "text" or "json"

	DigitizationURL string
	DigitizationKey string

	ChatURL   string
	ChatKey   string
	ChatModel string
}

// Load builds a Config from the environment. A .env file in the working
// directory is merged in first when present; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            8080,
		DBPath:          envOr("DB_PATH", "claims.db"),
		LogFormat:       envOr("LOG_FORMAT", "text"),
		DigitizationURL: os.Getenv("DIGITIZATION_API_URL"),
		DigitizationKey: os.Getenv("DIGITIZATION_API_KEY"),
		ChatURL:         envOr("OPENAI_API_URL", "https://api.openai.com/v1"),
		ChatKey:         os.Getenv("OPENAI_API_KEY"),
		ChatModel:       envOr("OPENAI_MODEL", "gpt-4o-mini"),
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", raw, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// Validate checks the fields the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", c.LogFormat)
	}
	if c.DigitizationURL == "" {
		return fmt.Errorf("DIGITIZATION_API_URL is required")
	}
	if c.DigitizationKey == "" {
		return fmt.Errorf("DIGITIZATION_API_KEY is required")
	}
	if c.ChatKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
