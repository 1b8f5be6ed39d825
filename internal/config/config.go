// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// minCSRFSecretLength is the minimum byte length for the signing secret.
const minCSRFSecretLength = 32

// ErrWeakCSRFSecret indicates the signing secret is too short.
var ErrWeakCSRFSecret = errors.New("CSRF_SECRET must be at least 32 bytes")

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache / sessions (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Signing secret for anti-forgery tokens.
	// Process-wide, loaded once, never rotated at runtime.
	CSRFSecret string `env:"CSRF_SECRET,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitAPIEnabled    bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitAPIPerMinute  int  `env:"RATE_LIMIT_API_PER_MINUTE" envDefault:"120"`
	RateLimitAPIBurst      int  `env:"RATE_LIMIT_API_BURST" envDefault:"20"`
	RateLimitPublicEnabled bool `env:"RATE_LIMIT_PUBLIC_ENABLED" envDefault:"true"`
	RateLimitPublicRPS     int  `env:"RATE_LIMIT_PUBLIC_RPS" envDefault:"20"`
	RateLimitPublicBurst   int  `env:"RATE_LIMIT_PUBLIC_BURST" envDefault:"10"`

	// Audit ring capacity for recent security events.
	AuditRingCapacity int `env:"AUDIT_RING_CAPACITY" envDefault:"512"`

	// Threat alert pipeline (Redis Streams consumer + webhook delivery)
	AlertsEnabled        bool          `env:"ALERTS_ENABLED" envDefault:"true"`
	AlertBatchSize       int           `env:"ALERT_BATCH_SIZE" envDefault:"100"`
	WebhooksEnabled      bool          `env:"WEBHOOKS_ENABLED" envDefault:"true"`
	WebhookBatchSize     int           `env:"WEBHOOK_BATCH_SIZE" envDefault:"50"`
	WebhookPollInterval  time.Duration `env:"WEBHOOK_POLL_INTERVAL" envDefault:"5s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or the signing
// secret is too weak to be useful.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.CSRFSecret) < minCSRFSecretLength {
		return nil, ErrWeakCSRFSecret
	}

	return cfg, nil
}
