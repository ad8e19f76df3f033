/*
Package configs loads the server configuration from environment variables.

In development a .env file in the working directory is read first; variables already set
in the environment win. Optional backends (PostgreSQL, Redis, S3) are disabled by leaving
their variables empty.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort             = 8080
	defaultPollInterval     = 5 * time.Second
	defaultSSEInterval      = 2 * time.Second
	defaultMessageRetention = 22 * time.Hour
	defaultSessionIdle      = 10 * time.Minute
	defaultJWTSecret        = "your_default_insecure_secret_key_change_me"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// Roster Settings
	PollInterval       time.Duration
	SSEInterval        time.Duration
	SessionIdleTimeout time.Duration

	// Chat Settings
	MessageRetention time.Duration

	// Backends; empty values fall back to in-memory implementations.
	DatabaseDSN string
	RedisURL    string

	// S3 Storage Settings; attachments are disabled unless all four are set.
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// AttachmentsEnabled reports whether every S3 setting is present.
func (c *AppConfig) AttachmentsEnabled() bool {
	return c.S3BucketName != "" && c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// LoadConfig reads and validates the configuration.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.IsDevelopment() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	}

	port, err := intEnv("PORT", defaultPort)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", port, 1024, 65535)
	}
	cfg.Port = port

	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		cfg.JWTSecret = defaultJWTSecret
	}

	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", defaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.SSEInterval, err = durationEnv("SSE_INTERVAL", defaultSSEInterval); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = durationEnv("SESSION_IDLE_TIMEOUT", defaultSessionIdle); err != nil {
		return nil, err
	}
	if cfg.MessageRetention, err = durationEnv("MESSAGE_RETENTION", defaultMessageRetention); err != nil {
		return nil, err
	}

	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return value, nil
}

func splitList(raw string) []string {
	origins := []string{}
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
