// Package config loads Flare settings from a YAML file and the environment.
//
// Precedence, lowest to highest: built-in defaults, the YAML file,
// environment variables, command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the shell and the servers.
type Config struct {
	// Prompt is printed before each line read by the shell.
	Prompt string `yaml:"prompt"`

	// Color enables coloured shell output.
	Color bool `yaml:"color"`

	// Preload lines are run in every new session before any input.
	Preload []string `yaml:"preload"`

	// StatePath is the SQLite file used to persist bindings. Empty disables
	// persistence.
	StatePath string `yaml:"state"`

	HTTP HTTPConfig `yaml:"http"`
	GRPC GRPCConfig `yaml:"grpc"`
}

// HTTPConfig configures the REST API and dashboard listener.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GRPCConfig configures the gRPC listener.
type GRPCConfig struct {
	Port int `yaml:"port"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Prompt: "flare> ",
		Color:  true,
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8790,
		},
		GRPC: GRPCConfig{
			Port: 8791,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path, or a
// path that does not exist, yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, leaving fields absent from data untouched.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	return cfg.Validate()
}

// Validate checks that ports are in range.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port %d out of range", c.HTTP.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("grpc port %d out of range", c.GRPC.Port)
	}
	return nil
}

// ApplyEnv overrides settings from FLARE_PROMPT, FLARE_STATE, FLARE_COLOR,
// HOST, PORT and GRPC_PORT.
func (c *Config) ApplyEnv() error {
	c.Prompt = envOrDefault("FLARE_PROMPT", c.Prompt)
	c.StatePath = envOrDefault("FLARE_STATE", c.StatePath)
	c.HTTP.Host = envOrDefault("HOST", c.HTTP.Host)

	if v := os.Getenv("FLARE_COLOR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FLARE_COLOR: %w", err)
		}
		c.Color = b
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.HTTP.Port = p
	}
	if v := os.Getenv("GRPC_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GRPC_PORT: %w", err)
		}
		c.GRPC.Port = p
	}
	return c.Validate()
}

// HTTPAddr returns the host:port the REST API listens on.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// GRPCAddr returns the host:port the gRPC service listens on.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.GRPC.Port)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
