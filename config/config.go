// ABOUTME: This file implements configuration management with environment variable support
// ABOUTME: Provides validation and defaults for every pipeline and server knob
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Fetch     FetchConfig     `json:"fetch"`
	Cache     CacheConfig     `json:"cache"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Ingest    IngestConfig    `json:"ingest"`
	Assembly  AssemblyConfig  `json:"assembly"`
	Retry     RetryConfig     `json:"retry"`
	Generator GeneratorConfig `json:"generator"`
	Cleanup   CleanupConfig   `json:"cleanup"`
	Log       LogConfig       `json:"log"`
}

type ServerConfig struct {
	Port            int           `json:"port" env:"SERVER_PORT" default:"9300"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"120s"`
}

type DatabaseConfig struct {
	Host     string `json:"host" env:"DB_HOST" default:"localhost"`
	Port     string `json:"port" env:"DB_PORT" default:"5432"`
	User     string `json:"user" env:"DB_USER" default:"linkpress"`
	Password string `json:"password" env:"DB_PASSWORD" default:""`
	Name     string `json:"name" env:"DB_NAME" default:"linkpress"`
	SSLMode  string `json:"ssl_mode" env:"DB_SSL_MODE" default:"disable"`
	MaxConns int    `json:"max_conns" env:"DB_MAX_CONNS" default:"10"`
}

// DSN renders the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.MaxConns)
}

type FetchConfig struct {
	Timeout         time.Duration `json:"timeout" env:"FETCH_TIMEOUT" default:"5s"`
	UserAgent       string        `json:"user_agent" env:"FETCH_USER_AGENT" default:"Mozilla/5.0 (compatible; LinkpressBot/1.0; +https://linkpress.example.com/bot)"`
	MaxResponseKB   int           `json:"max_response_kb" env:"FETCH_MAX_RESPONSE_KB" default:"5120"`
	MaxIdleConns    int           `json:"max_idle_conns" env:"FETCH_MAX_IDLE_CONNS" default:"10"`
	IdleConnTimeout time.Duration `json:"idle_conn_timeout" env:"FETCH_IDLE_CONN_TIMEOUT" default:"90s"`
}

type CacheConfig struct {
	Enabled    bool          `json:"enabled" env:"FEED_CACHE_ENABLED" default:"true"`
	TTL        time.Duration `json:"ttl" env:"FEED_CACHE_TTL" default:"5m"`
	MaxEntries int           `json:"max_entries" env:"FEED_CACHE_MAX_ENTRIES" default:"256"`
}

type RateLimitConfig struct {
	HostInterval time.Duration `json:"host_interval" env:"RATE_LIMIT_HOST_INTERVAL" default:"2s"`
}

type IngestConfig struct {
	CooldownSeconds int    `json:"cooldown_seconds" env:"INGEST_COOLDOWN_SECONDS" default:"3600"`
	WindowDays      int    `json:"window_days" env:"INGEST_WINDOW_DAYS" default:"7"`
	ReprocessPolicy string `json:"reprocess_policy" env:"INGEST_REPROCESS_POLICY" default:"if-empty-or-changed"`
}

type AssemblyConfig struct {
	KeepEmbeds            bool     `json:"keep_embeds" env:"ASSEMBLY_KEEP_EMBEDS" default:"false"`
	AllowedIframeHosts    []string `json:"allowed_iframe_hosts" env:"ASSEMBLY_ALLOWED_IFRAME_HOSTS"`
	InjectTopImage        bool     `json:"inject_top_image" env:"ASSEMBLY_INJECT_TOP_IMAGE" default:"true"`
	ExcerptMaxChars       int      `json:"excerpt_max_chars" env:"ASSEMBLY_EXCERPT_MAX_CHARS" default:"280"`
	MaxHTMLKB             int      `json:"max_html_kb" env:"ASSEMBLY_MAX_HTML_KB" default:"64"`
	StripKnownBoilerplate bool     `json:"strip_known_boilerplate" env:"ASSEMBLY_STRIP_KNOWN_BOILERPLATE" default:"true"`
	TrackerParams         []string `json:"tracker_params" env:"ASSEMBLY_TRACKER_PARAMS"`
}

type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts" env:"RETRY_MAX_ATTEMPTS" default:"3"`
	BaseDelay     time.Duration `json:"base_delay" env:"RETRY_BASE_DELAY" default:"1s"`
	MaxDelay      time.Duration `json:"max_delay" env:"RETRY_MAX_DELAY" default:"30s"`
	BackoffFactor float64       `json:"backoff_factor" env:"RETRY_BACKOFF_FACTOR" default:"2.0"`
	JitterFactor  float64       `json:"jitter_factor" env:"RETRY_JITTER_FACTOR" default:"0.1"`
}

type GeneratorConfig struct {
	Enabled   bool          `json:"enabled" env:"GENERATOR_ENABLED" default:"false"`
	Host      string        `json:"host" env:"GENERATOR_HOST" default:"http://post-creator:11434"`
	APIPath   string        `json:"api_path" env:"GENERATOR_API_PATH" default:"/api/v1/generate"`
	Model     string        `json:"model" env:"GENERATOR_MODEL" default:"gemma3:4b"`
	Timeout   time.Duration `json:"timeout" env:"GENERATOR_TIMEOUT" default:"240s"`
	Interval  time.Duration `json:"interval" env:"GENERATOR_INTERVAL" default:"1m"`
	BatchSize int           `json:"batch_size" env:"GENERATOR_BATCH_SIZE" default:"10"`
}

type CleanupConfig struct {
	RetentionDays int `json:"retention_days" env:"CLEANUP_RETENTION_DAYS" default:"30"`
}

type LogConfig struct {
	Level string `json:"level" env:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	config := &Config{}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func loadFromEnv(config *Config) error {
	config.Server = ServerConfig{
		Port:            envInt("SERVER_PORT", 9300),
		ShutdownTimeout: envDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		ReadTimeout:     envDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    envDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
	}

	config.Database = DatabaseConfig{
		Host:     envString("DB_HOST", "localhost"),
		Port:     envString("DB_PORT", "5432"),
		User:     envString("DB_USER", "linkpress"),
		Password: envString("DB_PASSWORD", ""),
		Name:     envString("DB_NAME", "linkpress"),
		SSLMode:  envString("DB_SSL_MODE", "disable"),
		MaxConns: envInt("DB_MAX_CONNS", 10),
	}

	config.Fetch = FetchConfig{
		Timeout:         envDuration("FETCH_TIMEOUT", 5*time.Second),
		UserAgent:       envString("FETCH_USER_AGENT", "Mozilla/5.0 (compatible; LinkpressBot/1.0; +https://linkpress.example.com/bot)"),
		MaxResponseKB:   envInt("FETCH_MAX_RESPONSE_KB", 5120),
		MaxIdleConns:    envInt("FETCH_MAX_IDLE_CONNS", 10),
		IdleConnTimeout: envDuration("FETCH_IDLE_CONN_TIMEOUT", 90*time.Second),
	}

	config.Cache = CacheConfig{
		Enabled:    envBool("FEED_CACHE_ENABLED", true),
		TTL:        envDuration("FEED_CACHE_TTL", 5*time.Minute),
		MaxEntries: envInt("FEED_CACHE_MAX_ENTRIES", 256),
	}

	config.RateLimit = RateLimitConfig{
		HostInterval: envDuration("RATE_LIMIT_HOST_INTERVAL", 2*time.Second),
	}

	config.Ingest = IngestConfig{
		CooldownSeconds: envInt("INGEST_COOLDOWN_SECONDS", 3600),
		WindowDays:      envInt("INGEST_WINDOW_DAYS", 7),
		ReprocessPolicy: envString("INGEST_REPROCESS_POLICY", "if-empty-or-changed"),
	}

	config.Assembly = AssemblyConfig{
		KeepEmbeds:            envBool("ASSEMBLY_KEEP_EMBEDS", false),
		AllowedIframeHosts:    envList("ASSEMBLY_ALLOWED_IFRAME_HOSTS", nil),
		InjectTopImage:        envBool("ASSEMBLY_INJECT_TOP_IMAGE", true),
		ExcerptMaxChars:       envInt("ASSEMBLY_EXCERPT_MAX_CHARS", 280),
		MaxHTMLKB:             envInt("ASSEMBLY_MAX_HTML_KB", 64),
		StripKnownBoilerplate: envBool("ASSEMBLY_STRIP_KNOWN_BOILERPLATE", true),
		TrackerParams:         envList("ASSEMBLY_TRACKER_PARAMS", nil),
	}

	config.Retry = RetryConfig{
		MaxAttempts:   envInt("RETRY_MAX_ATTEMPTS", 3),
		BaseDelay:     envDuration("RETRY_BASE_DELAY", time.Second),
		MaxDelay:      envDuration("RETRY_MAX_DELAY", 30*time.Second),
		BackoffFactor: envFloat("RETRY_BACKOFF_FACTOR", 2.0),
		JitterFactor:  envFloat("RETRY_JITTER_FACTOR", 0.1),
	}

	config.Generator = GeneratorConfig{
		Enabled:   envBool("GENERATOR_ENABLED", false),
		Host:      envString("GENERATOR_HOST", "http://post-creator:11434"),
		APIPath:   envString("GENERATOR_API_PATH", "/api/v1/generate"),
		Model:     envString("GENERATOR_MODEL", "gemma3:4b"),
		Timeout:   envDuration("GENERATOR_TIMEOUT", 240*time.Second),
		Interval:  envDuration("GENERATOR_INTERVAL", time.Minute),
		BatchSize: envInt("GENERATOR_BATCH_SIZE", 10),
	}

	config.Cleanup = CleanupConfig{
		RetentionDays: envInt("CLEANUP_RETENTION_DAYS", 30),
	}

	config.Log = LogConfig{
		Level: envString("LOG_LEVEL", "info"),
	}

	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}
