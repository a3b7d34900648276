// Package config provides configuration loading for journald.
//
// Configuration is layered: built-in defaults, then an optional YAML or
// TOML file, then environment variables with the JOURNAL_ prefix.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config holds the complete journald configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"http_host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// RateLimit is the sustained create rate per client in requests/second.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// StorageConfig selects and locates the reflection store.
type StorageConfig struct {
	Backend    string `koanf:"backend"`
	DataDir    string `koanf:"data_dir"`
	FileName   string `koanf:"file_name"`
	IDStrategy string `koanf:"id_strategy"`
}

// Path returns the backing document path.
func (s StorageConfig) Path() string {
	return filepath.Join(s.DataDir, s.FileName)
}

// LoggingConfig holds the logging settings exposed to operators.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Endpoint        string   `koanf:"endpoint"`
	Protocol        string   `koanf:"protocol"` // "grpc" or "http/protobuf"
	Insecure        bool     `koanf:"insecure"`
	ServiceName     string   `koanf:"service_name"`
	ServiceVersion  string   `koanf:"service_version"`
	SamplingRate    float64  `koanf:"sampling_rate"`
	MetricsInterval Duration `koanf:"metrics_interval"`
}

// NewDefaultConfig returns the configuration used when nothing is overridden.
// The data location matches the layout of earlier deployments: backend/reflections.json.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            5000,
			ShutdownTimeout: Duration(10 * time.Second),
			RateLimit:       0,
			RateBurst:       10,
		},
		Storage: StorageConfig{
			Backend:    BackendFile,
			DataDir:    "backend",
			FileName:   "reflections.json",
			IDStrategy: "timestamp",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:         false,
			Endpoint:        "localhost:4317",
			Protocol:        "grpc",
			Insecure:        true,
			ServiceName:     "journald",
			ServiceVersion:  "dev",
			SamplingRate:    1.0,
			MetricsInterval: Duration(15 * time.Second),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be >= 0, got %v", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be >= 1 when rate limiting is enabled, got %d", c.Server.RateBurst)
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.DataDir == "" {
			return errors.New("storage.data_dir is required for the file backend")
		}
		if c.Storage.FileName == "" {
			return errors.New("storage.file_name is required for the file backend")
		}
		if strings.ContainsAny(c.Storage.FileName, `/\`) || c.Storage.FileName == "." || c.Storage.FileName == ".." {
			return fmt.Errorf("storage.file_name must be a plain file name, got %q", c.Storage.FileName)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (must be %q or %q)", c.Storage.Backend, BackendFile, BackendMemory)
	}

	switch strings.ToLower(c.Storage.IDStrategy) {
	case "", "timestamp", "uuid":
	default:
		return fmt.Errorf("unknown storage.id_strategy %q (must be \"timestamp\" or \"uuid\")", c.Storage.IDStrategy)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry.endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.ServiceName == "" {
			return errors.New("service name required when telemetry is enabled")
		}
	}

	return nil
}
