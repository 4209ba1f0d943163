package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Navigation NavigationConfig
	Loader     LoaderConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds cross-origin rules for the API and event stream.
type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// NavigationConfig holds frame defaults.
type NavigationConfig struct {
	KeepContentAlive bool   `envconfig:"NAV_KEEP_ALIVE" default:"true"`
	Home             string `envconfig:"NAV_HOME" default:""`
	ContentRoot      string `envconfig:"NAV_CONTENT_ROOT" default:"."`
}

// LoaderConfig holds content loader configuration.
type LoaderConfig struct {
	Timeout    time.Duration `envconfig:"LOADER_TIMEOUT" default:"30s"`
	MaxRetries int           `envconfig:"LOADER_RETRIES" default:"3"`
	RateLimit  float64       `envconfig:"LOADER_RPS" default:"0"`
	UserAgent  string        `envconfig:"LOADER_USER_AGENT" default:"framenav/1.0"`
	MaxBytes   int64         `envconfig:"LOADER_MAX_BYTES" default:"10485760"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Navigation: NavigationConfig{
			KeepContentAlive: true,
			ContentRoot:      ".",
		},
		Loader: LoaderConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			UserAgent:  "framenav/1.0",
			MaxBytes:   10 * 1024 * 1024,
		},
	}
}
