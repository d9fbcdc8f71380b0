// Package config loads the strata.json service configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "strata.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"
)

// Config represents the complete strata.json configuration.
type Config struct {
	// Name is the service name, used as the tracer and metrics namespace.
	Name string `json:"name,omitempty"`

	// Server contains listener configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Observability toggles the metrics and tracing middleware.
	Observability ObservabilityConfig `json:"observability,omitempty"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"logLevel,omitempty"`

	configPath string
}

// ServerConfig contains listener configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `json:"host,omitempty"`

	// Port is the listen port.
	Port int `json:"port,omitempty"`
}

// ObservabilityConfig toggles the observability middleware.
type ObservabilityConfig struct {
	// Metrics enables the Prometheus middleware and the /metrics endpoint.
	Metrics bool `json:"metrics,omitempty"`

	// Tracing enables the OpenTelemetry middleware.
	Tracing bool `json:"tracing,omitempty"`
}

// Default returns the configuration used when no strata.json exists.
func Default() *Config {
	return &Config{
		Name: "strata",
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		LogLevel: "info",
	}
}

// Load reads strata.json from dir, falling back to defaults when the file
// does not exist.
func Load(dir string) (*Config, error) {
	return LoadFrom(filepath.Join(dir, ConfigFileName))
}

// LoadFrom reads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.configPath = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Path returns where the config was loaded from, "" for defaults.
func (c *Config) Path() string { return c.configPath }
