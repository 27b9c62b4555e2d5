package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	MCP       MCPConfig       `yaml:"mcp"`
	Emulator  EmulatorConfig  `yaml:"emulator"`
	Web       WebConfig       `yaml:"web"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// MCPConfig holds the stdio protocol server configuration.
type MCPConfig struct {
	Enabled bool `envconfig:"MCP_ENABLED" default:"true" yaml:"enabled"`
}

// EmulatorConfig holds emulator core configuration.
type EmulatorConfig struct {
	ROMDir      string `envconfig:"ROM_DIR" default:"./roms" yaml:"rom_dir"`
	DisplayMode string `envconfig:"DISPLAY_MODE" default:"headless" yaml:"display_mode"`
}

// WebConfig holds web debugger configuration.
type WebConfig struct {
	Enabled          bool     `envconfig:"WEB_ENABLED" default:"true" yaml:"enabled"`
	UpdateIntervalMS int      `envconfig:"WEB_UPDATE_INTERVAL_MS" default:"100" yaml:"update_interval_ms"`
	CORSOrigins      []string `envconfig:"CORS_ORIGINS" default:"*" yaml:"cors_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
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

// LoadFile loads configuration from environment, then overlays values
// from a YAML file. File values win over environment values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Emulator: EmulatorConfig{
			ROMDir:      "./roms",
			DisplayMode: "headless",
		},
		Web: WebConfig{
			Enabled:          true,
			UpdateIntervalMS: 100,
			CORSOrigins:      []string{"*"},
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
	}
}
