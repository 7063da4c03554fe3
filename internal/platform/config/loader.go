package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from an optional .env file and a yaml file,
// falling back to DefaultConfig when no file is present.
type Loader struct {
	useDotEnv bool
	path      string
}

func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		path:      "config.yaml",
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the yaml file location.
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	path := ""

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", l.path, err)
		}
		path = l.path
	case os.IsNotExist(err):
		// defaults apply
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", l.path, err)
	}

	if proxy := os.Getenv("EDGE_SPEECH_PROXY"); proxy != "" {
		cfg.Network.Proxy = proxy
	}

	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Reconnect.MaxRetries < 0 {
		return fmt.Errorf("reconnect max_retries must be >= 0, got %d", cfg.Reconnect.MaxRetries)
	}
	if cfg.Reconnect.BackoffFactor < 1 {
		return fmt.Errorf("reconnect backoff_factor must be >= 1, got %v", cfg.Reconnect.BackoffFactor)
	}
	if cfg.Network.ConnectTimeout < 0 || cfg.Network.ReceiveTimeout < 0 {
		return fmt.Errorf("network timeouts must not be negative")
	}
	return nil
}
