// Package config holds the viewer's settings: service address, polling,
// logging and display options.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvAPIURL  = "PURELANDS_API_URL"
	EnvRefresh = "PURELANDS_REFRESH"
	EnvLog     = "PURELANDS_LOG"
)

// Config is the on-disk configuration.
type Config struct {
	API  APIConfig  `yaml:"api"`
	Poll PollConfig `yaml:"poll"`
	Log  LogConfig  `yaml:"log"`
	UI   UIConfig   `yaml:"ui"`
}

// APIConfig configures the game service client.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int           `yaml:"burst"`
}

// PollConfig configures background refresh.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Path  string `yaml:"path"` // empty disables logging
	Level string `yaml:"level"`
}

// UIConfig configures rendering.
type UIConfig struct {
	SplitWidth int  `yaml:"split_width"` // side-by-side chat and thoughts at or above this width
	Markdown   bool `yaml:"markdown"`    // render thoughts as markdown
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			Timeout:   10 * time.Second,
			RateLimit: 10,
			Burst:     5,
		},
		Poll: PollConfig{Interval: 3 * time.Second},
		Log:  LogConfig{Path: filepath.Join(".purelands", "plv.log"), Level: "info"},
		UI:   UIConfig{SplitWidth: 120},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvRefresh); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvRefresh, v, err)
		}
		c.Poll.Interval = d
	}
	if v, ok := os.LookupEnv(EnvLog); ok {
		c.Log.Path = v
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ValidLevels lists the accepted log levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Poll.Interval < 100*time.Millisecond {
		return fmt.Errorf("poll.interval %s is too short (minimum 100ms)", c.Poll.Interval)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.API.RateLimit < 0 || c.API.Burst < 0 {
		return fmt.Errorf("api.rate_limit and api.burst must not be negative")
	}
	if c.Log.Level != "" {
		ok := false
		for _, l := range ValidLevels {
			if c.Log.Level == l {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("invalid log.level: %s (valid: %v)", c.Log.Level, ValidLevels)
		}
	}
	return nil
}
