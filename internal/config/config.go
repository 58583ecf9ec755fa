// Package config loads client configuration: defaults, then an optional
// agentcode.yaml (working directory or home), then AGENTCODE_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the client configuration.
type Config struct {
	// BackendURL is the base URL of the agent backend.
	BackendURL string `mapstructure:"backend_url" yaml:"backend_url"`
	// HeaderTimeoutSeconds bounds connection setup for the stream request.
	HeaderTimeoutSeconds int `mapstructure:"header_timeout_seconds" yaml:"header_timeout_seconds"`
	// DefaultMode is used when no --mode flag is given.
	DefaultMode string `mapstructure:"default_mode" yaml:"default_mode"`
	// LogLevel for the debug log file (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// MaxErrorBodyBytes limits error-body reads on non-2xx responses.
	MaxErrorBodyBytes int64 `mapstructure:"max_error_body_bytes" yaml:"max_error_body_bytes"`
}

func defaults() *Config {
	return &Config{
		BackendURL:           "http://localhost:8000",
		HeaderTimeoutSeconds: 10,
		DefaultMode:          "inspect",
		LogLevel:             "info",
		MaxErrorBodyBytes:    64 * 1024,
	}
}

// Load reads configuration from file and environment on top of defaults.
// A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	def := defaults()
	v.SetDefault("backend_url", def.BackendURL)
	v.SetDefault("header_timeout_seconds", def.HeaderTimeoutSeconds)
	v.SetDefault("default_mode", def.DefaultMode)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("max_error_body_bytes", def.MaxErrorBodyBytes)

	v.SetConfigName("agentcode")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix("AGENTCODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend_url must not be empty")
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	return cfg, nil
}

// HeaderTimeout returns the configured header timeout as a duration.
func (c *Config) HeaderTimeout() time.Duration {
	return time.Duration(c.HeaderTimeoutSeconds) * time.Second
}

// WriteDefault writes a starter config file with the default values.
// Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(defaults())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
