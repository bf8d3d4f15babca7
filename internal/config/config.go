// Package config provides configuration loading for the mepd daemon.
//
// Configuration is loaded from a YAML file with environment variable
// overrides and sensible defaults. This package covers daemon-level
// settings (server, logging, telemetry, store, events, rule catalogs);
// engine packages carry their own tuning configs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the complete mepd configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Store     StoreConfig     `koanf:"store"`
	Events    EventsConfig    `koanf:"events"`
	Rules     RulesConfig     `koanf:"rules"`
	Standards StandardsConfig `koanf:"standards"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Coordination endpoints (route, resolve, hangers) recompute geometry
	// and are rate limited per instance.
	CoordinationRPS   float64 `koanf:"coordination_rps"`
	CoordinationBurst int     `koanf:"coordination_burst"`
}

// LoggingConfig holds logging settings mapped onto logging.Config at boot.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
}

// TelemetryConfig holds OTLP export settings mapped onto telemetry.Config at boot.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
	Insecure    bool   `koanf:"insecure"`
}

// StoreConfig selects the model store backing the engine.
type StoreConfig struct {
	Driver string `koanf:"driver"` // memory or sqlite
	Path   string `koanf:"path"`   // sqlite database file
}

// EventsConfig holds NATS coordination event publishing settings.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// RulesConfig points at the discipline rule catalog.
type RulesConfig struct {
	Path  string `koanf:"path"`  // YAML overlay; empty keeps embedded defaults
	Watch bool   `koanf:"watch"` // hot-reload the catalog on file change
}

// StandardsConfig points at the hanger standards catalog.
type StandardsConfig struct {
	Path         string `koanf:"path"`          // TOML overlay; empty keeps embedded defaults
	SeismicGrade string `koanf:"seismic_grade"` // none, low, medium, high
}

// Load loads configuration from environment variables with defaults.
//
// Environment variables:
//   - MEPD_SERVER_HTTP_PORT: HTTP server port (default: 9090)
//   - MEPD_SERVER_SHUTDOWN_TIMEOUT: Graceful shutdown timeout (default: 10s)
//   - MEPD_LOGGING_LEVEL: Log level (default: info)
//   - MEPD_LOGGING_FORMAT: json or console (default: json)
//   - MEPD_TELEMETRY_ENABLED: Enable OTLP export (default: false)
//   - MEPD_TELEMETRY_ENDPOINT: OTLP collector endpoint (default: localhost:4317)
//   - MEPD_STORE_DRIVER: memory or sqlite (default: memory)
//   - MEPD_STORE_PATH: sqlite database file
//   - MEPD_EVENTS_ENABLED: Publish coordination events over NATS (default: false)
//   - MEPD_EVENTS_URL: NATS server URL (default: nats://localhost:4222)
//   - MEPD_RULES_PATH: discipline rule catalog overlay
//   - MEPD_STANDARDS_SEISMIC_GRADE: none, low, medium, high (default: none)
//
// Example:
//
//	cfg := config.Load()
//	fmt.Println("Server port:", cfg.Server.Port)
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvInt("MEPD_SERVER_HTTP_PORT", 9090),
			ShutdownTimeout:   getEnvDuration("MEPD_SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CoordinationRPS:   getEnvFloat("MEPD_SERVER_COORDINATION_RPS", 20),
			CoordinationBurst: getEnvInt("MEPD_SERVER_COORDINATION_BURST", 40),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("MEPD_LOGGING_LEVEL", "info"),
			Format: getEnvString("MEPD_LOGGING_FORMAT", "json"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvBool("MEPD_TELEMETRY_ENABLED", false),
			Endpoint:    getEnvString("MEPD_TELEMETRY_ENDPOINT", "localhost:4317"),
			ServiceName: getEnvString("MEPD_TELEMETRY_SERVICE_NAME", "mepd"),
			Insecure:    getEnvBool("MEPD_TELEMETRY_INSECURE", true),
		},
		Store: StoreConfig{
			Driver: getEnvString("MEPD_STORE_DRIVER", "memory"),
			Path:   getEnvString("MEPD_STORE_PATH", ""),
		},
		Events: EventsConfig{
			Enabled:       getEnvBool("MEPD_EVENTS_ENABLED", false),
			URL:           getEnvString("MEPD_EVENTS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnvString("MEPD_EVENTS_SUBJECT_PREFIX", "mep.coordination"),
		},
		Rules: RulesConfig{
			Path:  getEnvString("MEPD_RULES_PATH", ""),
			Watch: getEnvBool("MEPD_RULES_WATCH", false),
		},
		Standards: StandardsConfig{
			Path:         getEnvString("MEPD_STANDARDS_PATH", ""),
			SeismicGrade: getEnvString("MEPD_STANDARDS_SEISMIC_GRADE", "none"),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.CoordinationRPS <= 0 {
		return errors.New("coordination_rps must be positive")
	}
	if c.Server.CoordinationBurst < 1 {
		return errors.New("coordination_burst must be >= 1")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry endpoint required when telemetry is enabled")
		}
		if c.Telemetry.ServiceName == "" {
			return errors.New("service name required when telemetry is enabled")
		}
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return errors.New("store path required for sqlite driver")
		}
	default:
		return fmt.Errorf("store driver must be 'memory' or 'sqlite', got %q", c.Store.Driver)
	}

	if c.Events.Enabled {
		if c.Events.URL == "" {
			return errors.New("events URL required when events are enabled")
		}
		if c.Events.SubjectPrefix == "" {
			return errors.New("events subject prefix required when events are enabled")
		}
	}

	switch c.Standards.SeismicGrade {
	case "", "none", "low", "medium", "high":
	default:
		return fmt.Errorf("seismic grade must be none, low, medium or high, got %q", c.Standards.SeismicGrade)
	}

	return nil
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
