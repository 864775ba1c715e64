// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Host     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Storage
	DatabasePath string // SQLite file path (empty uses in-memory storage)

	// HTTP surface
	CORSOrigins []string
	EnableDocs  bool // interactive endpoint documentation at /docs

	// Event settings
	SessionID string // placeholder session identifier stamped on every event

	// Response field toggles. The two upstream deployments diverged on
	// which fields their responses carried; these unify them.
	IncludeClientIP       bool // attach the caller's IP to stored events and event views
	IncludeRemainingCount bool // include remaining_count in clear responses
}

// Defaults
const (
	DefaultPort         = "8000"
	DefaultHost         = "0.0.0.0"
	DefaultEnv          = "development"
	DefaultLogLevel     = "info"
	DefaultDatabasePath = "interview_data.db"
	DefaultSessionID    = "session_1"
)

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	env := getEnv("ENV", DefaultEnv)

	cfg := &Config{
		Port:                  getEnv("PORT", DefaultPort),
		Host:                  getEnv("HOST", DefaultHost),
		Env:                   env,
		LogLevel:              getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabasePath:          getEnv("DATABASE_PATH", DefaultDatabasePath),
		CORSOrigins:           splitList(getEnv("CORS_ORIGINS", "*")),
		EnableDocs:            getEnvBool("ENABLE_DOCS", env != "production"),
		SessionID:             getEnv("SESSION_ID", DefaultSessionID),
		IncludeClientIP:       getEnvBool("INCLUDE_CLIENT_IP", false),
		IncludeRemainingCount: getEnvBool("INCLUDE_REMAINING_COUNT", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.SessionID == "" {
		return fmt.Errorf("SESSION_ID must not be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
