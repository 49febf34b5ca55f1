// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables and an optional YAML file,
// applies defaults, and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// Every setting can come from an environment variable or the YAML file.
type Config struct {
	Server   ServerConfig    `koanf:"server"`
	Database DatabaseConfig  `koanf:"database"`
	Cache    CacheConfig     `koanf:"cache"`
	Upload   UploadConfig    `koanf:"upload"`
	Detect   DetectConfig    `koanf:"detect"`
	History  HistoryConfig   `koanf:"history"`
	Rate     RateLimitConfig `koanf:"rate"`
	Security SecurityConfig  `koanf:"security"`
	Logging  LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" koanf:"host" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" koanf:"port" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" koanf:"read_timeout" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" koanf:"write_timeout" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" koanf:"idle_timeout" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" koanf:"shutdown_timeout" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" koanf:"request_timeout" default:"60s"`
}

// DatabaseConfig holds history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty keeps history in memory.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" koanf:"url"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" koanf:"max_conns" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" koanf:"min_conns" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" koanf:"max_conn_lifetime" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" koanf:"max_conn_idle_time" default:"30m"`
}

// CacheConfig holds the Redis result cache settings.
type CacheConfig struct {
	// Enabled turns the detection cache on (default: false)
	Enabled bool `env:"CACHE_ENABLED" koanf:"enabled" default:"false"`

	// Addr is the Redis host:port (default: localhost:6379)
	Addr string `env:"REDIS_ADDR" koanf:"addr" default:"localhost:6379"`

	// Password is the Redis password, if any
	Password string `env:"REDIS_PASSWORD" koanf:"password"`

	// DB is the Redis database number (default: 0)
	DB int `env:"REDIS_DB" koanf:"db" default:"0"`

	// TTL is how long a cached detection lives (default: 1h)
	TTL time.Duration `env:"CACHE_TTL" koanf:"ttl" default:"1h"`

	// KeyPrefix namespaces cache keys (default: tabsniff:)
	KeyPrefix string `env:"CACHE_KEY_PREFIX" koanf:"key_prefix" default:"tabsniff:"`
}

// UploadConfig holds upload handling settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" koanf:"max_file_size" default:"20971520"`

	// MaxConcurrent is the maximum number of parallel detections (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" koanf:"max_concurrent" default:"5"`

	// MaxWaitTime is how long to wait for a detection slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" koanf:"max_wait_time" default:"30s"`

	// Timeout bounds a single upload from first byte to stored result (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" koanf:"timeout" default:"2m"`
}

// DetectConfig holds detector tuning.
type DetectConfig struct {
	// SniffLines is how many lines the fallback separator inference reads (default: 20)
	SniffLines int `env:"DETECT_SNIFF_LINES" koanf:"sniff_lines" default:"20"`

	// DisplayRows caps rows rendered on HTML result pages (default: 200)
	DisplayRows int `env:"DETECT_DISPLAY_ROWS" koanf:"display_rows" default:"200"`
}

// HistoryConfig holds detection history settings.
type HistoryConfig struct {
	// PreviewRows is how many table rows are stored per detection; 0 stores all (default: 20)
	PreviewRows int `env:"HISTORY_PREVIEW_ROWS" koanf:"preview_rows" default:"20"`

	// MaxList caps history listings (default: 100)
	MaxList int `env:"HISTORY_MAX_LIST" koanf:"max_list" default:"100"`

	// MemoryCapacity is how many records the in-memory store keeps (default: 500)
	MemoryCapacity int `env:"HISTORY_MEMORY_CAPACITY" koanf:"memory_capacity" default:"500"`

	// RetentionDays prunes records older than this; 0 keeps them forever (default: 30)
	RetentionDays int `env:"HISTORY_RETENTION_DAYS" koanf:"retention_days" default:"30"`

	// PruneInterval is how often the retention job runs (default: 24h)
	PruneInterval time.Duration `env:"HISTORY_PRUNE_INTERVAL" koanf:"prune_interval" default:"24h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" koanf:"enabled" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" koanf:"requests_per_minute" default:"100"`

	// UploadLimit is requests per minute for detection endpoints (default: 20)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" koanf:"upload_limit" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" koanf:"trusted_proxies"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" koanf:"enable_csp" default:"true"`

	// RequireAPIKey enforces X-API-Key on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" koanf:"require_api_key" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS" koanf:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" koanf:"level" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" koanf:"format" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
