package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Storage
	DataDir             string        // where <project>_keywords.db files are written
	UploadDir           string        // retained copies of uploads; empty disables retention
	UploadRetention     time.Duration // age after which retained uploads are removed
	UploadSweepInterval time.Duration
	MaxUploadMB         int

	// StrictPersistence turns a failed database write into a failed request.
	// When false the upload is still reported as successful.
	StrictPersistence bool

	// Upload registry (optional, Postgres)
	DatabaseURL string

	// Rate limiting
	RedisURL           string // limiter storage; in-memory when empty
	RateLimitPerMinute int

	// TLS/mTLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string // CA for verifying client certs (mTLS)

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Logging
	LogLevel string
	LogJSON  bool

	// Ingest profile (column names, sentinel, CSV dialect)
	ProfileFile string

	// Site Branding
	SiteTitle   string // env: SITE_TITLE, default: "Keyword Metrics"
	SiteTagline string // env: SITE_TAGLINE
	SiteFooter  string // env: SITE_FOOTER
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:                 getEnv("ENV", "development"),
		ServerAddr:          getEnv("SERVER_ADDR", ":3000"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:3000"),
		DataDir:             getEnv("DATA_DIR", "."),
		UploadDir:           getEnv("UPLOAD_DIR", ""),
		UploadRetention:     getEnvDuration("UPLOAD_RETENTION", 24*time.Hour),
		UploadSweepInterval: getEnvDuration("UPLOAD_SWEEP_INTERVAL", time.Hour),
		MaxUploadMB:         getEnvInt("MAX_UPLOAD_MB", 32),
		StrictPersistence:   getEnvBool("STRICT_PERSISTENCE", false),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TLSEnabled:          getEnv("TLS_ENABLED", "") != "",
		TLSCertFile:         getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:          getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:           getEnv("TLS_CA_FILE", ""),
		CORSOrigins:         getEnv("CORS_ORIGINS", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogJSON:             getEnvBool("LOG_JSON", false),
		ProfileFile:         getEnv("PROFILE_FILE", "profile.yaml"),

		SiteTitle:   getEnv("SITE_TITLE", "Keyword Metrics"),
		SiteTagline: getEnv("SITE_TAGLINE", "Turn keyword research exports into ranked opportunity tables"),
		SiteFooter:  getEnv("SITE_FOOTER", "Keyword Metrics"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getEnvDuration only accepts positive durations.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsMTLSEnabled returns true if mTLS is configured with a CA file.
func (c *Config) IsMTLSEnabled() bool {
	return c.TLSEnabled && c.TLSCAFile != ""
}

// IsRegistryEnabled returns true if uploads are recorded in Postgres.
func (c *Config) IsRegistryEnabled() bool {
	return c.DatabaseURL != ""
}

// RetainsUploads returns true if uploaded files are kept on disk.
func (c *Config) RetainsUploads() bool {
	return c.UploadDir != ""
}

// BodyLimit returns the maximum request body size in bytes.
func (c *Config) BodyLimit() int {
	if c.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return c.MaxUploadMB << 20
}
