// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the server configuration from NOVICE_* environment
// variables, optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jknm/novice/internal/cache"
	"github.com/jknm/novice/internal/directory"
	"github.com/jknm/novice/internal/jobs"
	"github.com/jknm/novice/internal/logging"
	"github.com/jknm/novice/internal/storage"
	"github.com/jknm/novice/internal/webhook"
)

// knownWeakSecrets contains example secrets that must never sign tokens.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"NOVICE_DB_PATH" envDefault:"./data/novice.db"`
	ServerHost string `env:"NOVICE_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"NOVICE_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"NOVICE_ENV" envDefault:"development"`
	LogLevel   string `env:"NOVICE_LOG_LEVEL" envDefault:"info"`
	SiteURL    string `env:"NOVICE_SITE_URL" envDefault:"http://localhost:3000"` // Public news site, used in the sitemap

	// Bearer token verification
	TokenSecret string        `env:"NOVICE_TOKEN_SECRET,required"`
	TokenIssuer string        `env:"NOVICE_TOKEN_ISSUER" envDefault:"novice"`
	TokenTTL    time.Duration `env:"NOVICE_TOKEN_TTL" envDefault:"12h"`

	// Object storage
	S3Endpoint      string `env:"NOVICE_S3_ENDPOINT"`
	S3Region        string `env:"NOVICE_S3_REGION" envDefault:"auto"`
	S3Bucket        string `env:"NOVICE_S3_BUCKET"`
	S3AccessKey     string `env:"NOVICE_S3_ACCESS_KEY"`
	S3SecretKey     string `env:"NOVICE_S3_SECRET_KEY"`
	S3UseSSL        bool   `env:"NOVICE_S3_USE_SSL" envDefault:"true"`
	S3PublicBaseURL string `env:"NOVICE_S3_PUBLIC_BASE_URL"`

	// Media processing
	UploadURLTTL    time.Duration `env:"NOVICE_UPLOAD_URL_TTL" envDefault:"10m"`
	PipelineWorkers int           `env:"NOVICE_PIPELINE_WORKERS" envDefault:"4"` // Concurrent variant encodes per image
	JobWorkers      int           `env:"NOVICE_JOB_WORKERS" envDefault:"2"`      // Concurrent background jobs
	JobQueueSize    int           `env:"NOVICE_JOB_QUEUE_SIZE" envDefault:"100"` // Buffered jobs before uploads fail
	JobTimeout      time.Duration `env:"NOVICE_JOB_TIMEOUT" envDefault:"5m"`     // Per-job deadline

	// Cache configuration
	RedisURL     string        `env:"NOVICE_REDIS_URL"`                         // Optional Redis URL for shared caching
	CachePrefix  string        `env:"NOVICE_CACHE_PREFIX" envDefault:"novice:"` // Redis key prefix
	CacheTTL     time.Duration `env:"NOVICE_CACHE_TTL" envDefault:"10m"`        // Published article TTL
	CacheMaxSize int           `env:"NOVICE_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Google Workspace directory
	GoogleCredentialsB64 string `env:"NOVICE_GOOGLE_CREDENTIALS_B64"`
	GoogleCustomerID     string `env:"NOVICE_GOOGLE_CUSTOMER_ID" envDefault:"my_customer"`
	GoogleSubject        string `env:"NOVICE_GOOGLE_SUBJECT"`

	// Scheduled tasks
	AuthorSyncSchedule string        `env:"NOVICE_AUTHOR_SYNC_SCHEDULE" envDefault:"0 3 * * *"`
	EventRetention     time.Duration `env:"NOVICE_EVENT_RETENTION" envDefault:"720h"`

	// API protection
	RateLimitRPS   float64       `env:"NOVICE_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int           `env:"NOVICE_RATE_LIMIT_BURST" envDefault:"20"`
	RequestTimeout time.Duration `env:"NOVICE_REQUEST_TIMEOUT" envDefault:"30s"`
	TrustProxy     bool          `env:"NOVICE_TRUST_PROXY" envDefault:"false"` // Honour X-Forwarded-For
	CORSOrigins    []string      `env:"NOVICE_CORS_ORIGINS" envSeparator:","`  // Defaults to SiteURL

	// Article change notifications
	WebhookURLs      []string `env:"NOVICE_WEBHOOK_URLS" envSeparator:","`
	WebhookSecret    string   `env:"NOVICE_WEBHOOK_SECRET"`
	WebhookWorkers   int      `env:"NOVICE_WEBHOOK_WORKERS" envDefault:"2"`     // Deliveries in flight
	WebhookQueueSize int      `env:"NOVICE_WEBHOOK_QUEUE_SIZE" envDefault:"50"` // Buffered deliveries before notifications drop
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if the application is running in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// DirectoryEnabled returns true if Google directory credentials are configured.
func (c Config) DirectoryEnabled() bool {
	return c.GoogleCredentialsB64 != ""
}

// AllowedOrigins returns the browser origins allowed to call the API.
func (c Config) AllowedOrigins() []string {
	if len(c.CORSOrigins) > 0 {
		return c.CORSOrigins
	}
	return []string{strings.TrimSuffix(c.SiteURL, "/")}
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	return logging.ParseLevel(c.LogLevel)
}

// S3 returns the object storage settings.
func (c Config) S3() storage.S3Config {
	return storage.S3Config{
		Endpoint:      c.S3Endpoint,
		Region:        c.S3Region,
		Bucket:        c.S3Bucket,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		UseSSL:        c.S3UseSSL,
		PublicBaseURL: c.S3PublicBaseURL,
	}
}

// Cache returns the article cache settings.
func (c Config) Cache() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.RedisURL = c.RedisURL
	cfg.Prefix = c.CachePrefix
	cfg.DefaultTTL = c.CacheTTL
	cfg.MaxSize = c.CacheMaxSize
	return cfg
}

// Directory returns the Google directory settings.
func (c Config) Directory() directory.Config {
	return directory.Config{
		CredentialsB64: c.GoogleCredentialsB64,
		CustomerID:     c.GoogleCustomerID,
		Subject:        c.GoogleSubject,
	}
}

// Jobs returns the background queue settings.
func (c Config) Jobs() jobs.Config {
	return jobs.Config{
		Name:      "default",
		Workers:   c.JobWorkers,
		QueueSize: c.JobQueueSize,
		Timeout:   c.JobTimeout,
	}
}

// WebhookJobs returns the settings of the queue that delivers webhooks.
// Retries sleep on its workers, so it is kept apart from the variant
// pipeline and directory sync.
func (c Config) WebhookJobs() jobs.Config {
	return jobs.Config{
		Name:      "webhooks",
		Workers:   c.WebhookWorkers,
		QueueSize: c.WebhookQueueSize,
		Timeout:   c.JobTimeout,
	}
}

// Webhook returns the notification dispatcher settings.
func (c Config) Webhook() webhook.Config {
	cfg := webhook.DefaultConfig()
	cfg.Endpoints = c.WebhookURLs
	cfg.Secret = c.WebhookSecret
	return cfg
}

// MinTokenSecretLength is the minimum length of the HS256 signing secret.
const MinTokenSecretLength = 32

// LoadDotEnv loads .env files into the environment. Variables already set
// win; missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.TokenSecret) < MinTokenSecretLength {
		return nil, fmt.Errorf("NOVICE_TOKEN_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinTokenSecretLength, len(cfg.TokenSecret))
	}
	for _, weak := range knownWeakSecrets {
		if cfg.TokenSecret == weak {
			return nil, errors.New("NOVICE_TOKEN_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}
	if !hasMinimumEntropy(cfg.TokenSecret) {
		slog.Warn("NOVICE_TOKEN_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.PipelineWorkers < 1 {
		return nil, fmt.Errorf("NOVICE_PIPELINE_WORKERS must be positive, got %d", cfg.PipelineWorkers)
	}
	if cfg.JobWorkers < 1 {
		return nil, fmt.Errorf("NOVICE_JOB_WORKERS must be positive, got %d", cfg.JobWorkers)
	}
	if cfg.WebhookWorkers < 1 {
		return nil, fmt.Errorf("NOVICE_WEBHOOK_WORKERS must be positive, got %d", cfg.WebhookWorkers)
	}
	if cfg.UploadURLTTL <= 0 || cfg.UploadURLTTL > 7*24*time.Hour {
		// S3 presigned URLs are capped at seven days.
		return nil, fmt.Errorf("NOVICE_UPLOAD_URL_TTL must be between 1s and 168h, got %s", cfg.UploadURLTTL)
	}
	if cfg.DirectoryEnabled() && cfg.GoogleSubject == "" {
		return nil, errors.New("NOVICE_GOOGLE_SUBJECT is required when directory credentials are set")
	}
	for _, raw := range cfg.WebhookURLs {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("NOVICE_WEBHOOK_URLS contains an invalid URL: %q", raw)
		}
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
