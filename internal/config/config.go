// Package config provides configuration management for the catalog server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	DefaultServerPort      = 5000
	DefaultDataFile        = "database.json"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultEventsEnabled   = true
	DefaultCORSOrigins     = "*"
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvDataFile        = "APP_DATA_FILE"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvLogFile         = "APP_LOG_FILE"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvEventsEnabled   = "APP_EVENTS_ENABLED"
	EnvCORSOrigins     = "APP_CORS_ALLOWED_ORIGINS"
	EnvRateLimitRPS    = "APP_RATE_LIMIT_RPS"
	EnvRateLimitBurst  = "APP_RATE_LIMIT_BURST"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	EventsEnabled   bool
	CORSOrigins     []string

	// Rate limiting; RateLimitRPS of 0 disables it.
	RateLimitRPS   float64
	RateLimitBurst int

	// Storage.
	DataFile string

	// Logging. An empty LogFile logs to stdout only.
	LogLevel string
	LogFile  string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrEmptyDataFile          = errors.New("data file path must not be empty")
	ErrInvalidRateLimit       = errors.New("rate limit values must not be negative")
	ErrEmptyCORSOrigins       = errors.New("at least one CORS origin must be configured")
)

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		ServerPort:      DefaultServerPort,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		EventsEnabled:   DefaultEventsEnabled,
		CORSOrigins:     []string{DefaultCORSOrigins},
		DataFile:        DefaultDataFile,
		LogLevel:        DefaultLogLevel,
	}
}

// Load reads configuration from environment variables with defaults.
// Variables from a .env file in the working directory are applied first
// and never override variables already set in the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	if err := c.loadRateLimitEnv(); err != nil {
		return err
	}

	c.loadStorageEnv()
	c.loadLogEnv()

	return nil
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvEventsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvEventsEnabled, err)
		}
		c.EventsEnabled = enabled
	}

	if val := os.Getenv(EnvCORSOrigins); val != "" {
		c.CORSOrigins = splitList(val)
	}

	return nil
}

// loadRateLimitEnv loads rate limiter environment variables.
func (c *Config) loadRateLimitEnv() error {
	if val := os.Getenv(EnvRateLimitRPS); val != "" {
		rps, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvRateLimitRPS, err)
		}
		c.RateLimitRPS = rps
	}

	if val := os.Getenv(EnvRateLimitBurst); val != "" {
		burst, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvRateLimitBurst, err)
		}
		c.RateLimitBurst = burst
	}

	return nil
}

// loadStorageEnv loads storage environment variables.
func (c *Config) loadStorageEnv() {
	if val := os.Getenv(EnvDataFile); val != "" {
		c.DataFile = val
	}
}

// loadLogEnv loads logging environment variables.
func (c *Config) loadLogEnv() {
	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvLogFile); val != "" {
		c.LogFile = val
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if strings.TrimSpace(c.DataFile) == "" {
		return ErrEmptyDataFile
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return ErrInvalidRateLimit
	}

	if len(c.CORSOrigins) == 0 {
		return ErrEmptyCORSOrigins
	}

	return nil
}

// RateLimitEnabled reports whether requests should be rate limited.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// splitList splits a comma-separated value and drops empty entries.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
