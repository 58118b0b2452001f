// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the Contact section; the three fixed destinations besides the resume.
const (
	DefaultEmail    = "hello@example.com"
	DefaultLinkedIn = "https://www.linkedin.com/"
	DefaultGitHub   = "https://github.com"
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Source is the profile document location: a file path or an http(s) URL.
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"` // Optional HTML template override

	// Server
	Port           int `json:"port,omitempty" yaml:"port,omitempty"`
	RefreshSeconds int `json:"refresh_seconds,omitempty" yaml:"refresh_seconds,omitempty"` // Loading page auto-refresh

	// Contact links
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	LinkedIn string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty" yaml:"github,omitempty"`

	// Behavior
	FetchTimeout string `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"` // Go duration, e.g. "10s"
	LogLevel     string `json:"log_level,omitempty" yaml:"log_level,omitempty"`         // debug, info, warn, error
	Verbose      bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Source:         "data.json",
		Port:           8080,
		RefreshSeconds: 2,
		Email:          DefaultEmail,
		LinkedIn:       DefaultLinkedIn,
		GitHub:         DefaultGitHub,
		FetchTimeout:   "30s",
		LogLevel:       "info",
	}
}

// LoadConfig loads configuration from a JSON or YAML file (by extension).
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from PORTFOLIO_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORTFOLIO_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("PORTFOLIO_TEMPLATE"); v != "" {
		c.Template = v
	}
	if v := os.Getenv("PORTFOLIO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("PORTFOLIO_EMAIL"); v != "" {
		c.Email = v
	}
	if v := os.Getenv("PORTFOLIO_LINKEDIN"); v != "" {
		c.LinkedIn = v
	}
	if v := os.Getenv("PORTFOLIO_GITHUB"); v != "" {
		c.GitHub = v
	}
	if v := os.Getenv("PORTFOLIO_FETCH_TIMEOUT"); v != "" {
		c.FetchTimeout = v
	}
	if v := os.Getenv("PORTFOLIO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.RefreshSeconds < 0 {
		return fmt.Errorf("config error: 'refresh_seconds' must be non-negative")
	}

	if c.FetchTimeout != "" {
		d, err := time.ParseDuration(c.FetchTimeout)
		if err != nil {
			return fmt.Errorf("config error: invalid 'fetch_timeout': %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config error: 'fetch_timeout' must be positive")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown 'log_level' %q", c.LogLevel)
	}

	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}

	return nil
}

// CheckSource reports a missing local source file. Remote sources are not
// checked. Validate does not call it: a missing file is a load failure.
func (c *Config) CheckSource() error {
	if c.Source == "" || isRemote(c.Source) {
		return nil
	}
	if _, err := os.Stat(c.Source); os.IsNotExist(err) {
		return fmt.Errorf("config error: source file not found: %s", c.Source)
	}
	return nil
}

// Timeout returns the parsed fetch timeout, or fallback when unset or invalid.
func (c *Config) Timeout(fallback time.Duration) time.Duration {
	if c.FetchTimeout == "" {
		return fallback
	}
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Source == "" {
		result.Source = defaults.Source
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.Email == "" {
		result.Email = defaults.Email
	}
	if result.LinkedIn == "" {
		result.LinkedIn = defaults.LinkedIn
	}
	if result.GitHub == "" {
		result.GitHub = defaults.GitHub
	}
	if result.FetchTimeout == "" {
		result.FetchTimeout = defaults.FetchTimeout
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.RefreshSeconds == 0 {
		result.RefreshSeconds = defaults.RefreshSeconds
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
