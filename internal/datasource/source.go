// Package datasource discovers the viewer configuration and connects to the
// game service it names.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/daviddao/purelands_viewer/internal/config"
	"github.com/daviddao/purelands_viewer/internal/gameapi"
)

const (
	defaultConfig = ".purelands/config.yaml"

	// EnvConfig names an explicit configuration file.
	EnvConfig = "PURELANDS_CONFIG"
)

// ErrNoConfig is returned by Discover when no configuration file exists.
// Callers fall back to the built-in defaults.
var ErrNoConfig = errors.New("no purelands config found")

// Discover finds the configuration file path.
// Priority: PURELANDS_CONFIG env var > .purelands/config.yaml in CWD > walk up parents.
func Discover() (string, error) {
	if env := os.Getenv(EnvConfig); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env, nil
		}
		return "", fmt.Errorf("%s=%q: %w", EnvConfig, env, os.ErrNotExist)
	}

	// Check CWD first.
	if _, err := os.Stat(defaultConfig); err == nil {
		abs, err := filepath.Abs(defaultConfig)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path for %s: %w", defaultConfig, err)
		}
		return abs, nil
	}

	// Walk up parent directories.
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, defaultConfig)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w (looked for %s)", ErrNoConfig, defaultConfig)
}

// Resolve returns explicit when set, otherwise the discovered path. A
// missing configuration yields "" and no error.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config %s: %w", explicit, err)
		}
		return explicit, nil
	}
	path, err := Discover()
	if errors.Is(err, ErrNoConfig) {
		return "", nil
	}
	return path, err
}

// LoadConfig resolves and loads the configuration. The returned path is
// empty when the defaults are in use.
func LoadConfig(explicit string) (*config.Config, string, error) {
	path, err := Resolve(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// NewClient builds a game service client from cfg.
func NewClient(cfg *config.Config, log *zap.Logger) (*gameapi.Client, error) {
	opts := []gameapi.Option{
		gameapi.WithTimeout(cfg.API.Timeout),
		gameapi.WithLogger(log),
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, gameapi.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst))
	}
	c, err := gameapi.New(cfg.API.BaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %q: %w", cfg.API.BaseURL, err)
	}
	return c, nil
}

// Open resolves, loads and validates the configuration. baseURL, when
// non-empty, replaces the configured service address.
func Open(explicit, baseURL string) (*config.Config, string, error) {
	cfg, path, err := LoadConfig(explicit)
	if err != nil {
		return nil, "", err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("config %s: %w", displayPath(path), err)
	}
	return cfg, path, nil
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
