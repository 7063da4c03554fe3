package config

import "time"

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "INFO",
			Dir:   "",
			File:  "edge-speech.log",
		},
		Synthesis: SynthesisConfig{
			Voice:  "en-US-EmmaMultilingualNeural",
			Rate:   "+0%",
			Volume: "+0%",
			Pitch:  "+0Hz",
		},
		Network: NetworkConfig{
			ConnectTimeout: 10 * time.Second,
			ReceiveTimeout: 60 * time.Second,
		},
		Reconnect: ReconnectConfig{
			MaxRetries:    3,
			InitialDelay:  time.Second,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2,
		},
	}
}
