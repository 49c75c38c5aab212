// Package config loads the server settings: built-in defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

var ErrInvalid = errors.New("invalid config")

// Config is the server configuration. The yaml keys mirror the environment
// variable names in lower case.
type Config struct {
	HTTPAddr        string  `yaml:"http_addr"`
	SeedPath        string  `yaml:"seed_path"`
	SnapshotPath    string  `yaml:"snapshot_path"`
	SnapshotBackend string  `yaml:"snapshot_backend"`
	DatabaseURL     string  `yaml:"database_url"`
	LibraryName     string  `yaml:"library_name"`
	LogLevel        string  `yaml:"log_level"`
	Timezone        string  `yaml:"timezone"`
	RateLimitRPS    float64 `yaml:"rate_limit_rps"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	TrustProxy      bool    `yaml:"trust_proxy"`
	OTLPEndpoint    string  `yaml:"otel_exporter_otlp_endpoint"`
	ServiceName     string  `yaml:"service_name"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTPAddr:        "localhost:8080",
		SeedPath:        "data/sample-data.json",
		SnapshotPath:    "data/state.json",
		SnapshotBackend: BackendFile,
		LibraryName:     "main",
		LogLevel:        "info",
		Timezone:        "UTC",
		RateLimitRPS:    20,
		RateLimitBurst:  40,
		ServiceName:     "libraryledger",
	}
}

// Load builds the configuration. path may be empty; a named file that does not
// exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.SeedPath = getEnv("SEED_PATH", c.SeedPath)
	c.SnapshotPath = getEnv("SNAPSHOT_PATH", c.SnapshotPath)
	c.SnapshotBackend = getEnv("SNAPSHOT_BACKEND", c.SnapshotBackend)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.LibraryName = getEnv("LIBRARY_NAME", c.LibraryName)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)

	if v, ok := os.LookupEnv("RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: RATE_LIMIT_RPS=%q", ErrInvalid, v)
		}
		c.RateLimitRPS = f
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: RATE_LIMIT_BURST=%q", ErrInvalid, v)
		}
		c.RateLimitBurst = n
	}
	if v, ok := os.LookupEnv("TRUST_PROXY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: TRUST_PROXY=%q", ErrInvalid, v)
		}
		c.TrustProxy = b
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: http address is empty", ErrInvalid)
	}
	switch c.SnapshotBackend {
	case BackendFile:
		if c.SnapshotPath == "" {
			return fmt.Errorf("%w: snapshot path is empty", ErrInvalid)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: postgres backend needs DATABASE_URL", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown snapshot backend %q", ErrInvalid, c.SnapshotBackend)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalid)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst == 0 {
		return fmt.Errorf("%w: rate limit burst must be positive", ErrInvalid)
	}
	return nil
}

// Location is the time zone that decides what "today" is.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Timezone, err)
	}
	return loc, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
