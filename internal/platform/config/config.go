package config

import (
	"time"
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Network   NetworkConfig   `yaml:"network"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// SynthesisConfig carries the default synthesis parameters applied when the
// caller does not override them per job.
type SynthesisConfig struct {
	Voice  string `yaml:"voice"`
	Rate   string `yaml:"rate"`
	Volume string `yaml:"volume"`
	Pitch  string `yaml:"pitch"`
}

type NetworkConfig struct {
	Proxy          string        `yaml:"proxy,omitempty"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`
}

type ReconnectConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}
