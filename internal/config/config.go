// Package config loads djdeck settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	SampleRate   int
	BlockSize    int
	Channels     int
	Library      string        // playlist file
	Conversion   string        // load-time rate conversion: off, low, medium, high
	LogLevel     zerolog.Level // debug, info, warn, error
	PollInterval time.Duration // position feed period
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		SampleRate:   envInt("DJDECK_SAMPLE_RATE", 44100),
		BlockSize:    envInt("DJDECK_BLOCK_SIZE", 512),
		Channels:     envInt("DJDECK_CHANNELS", 2),
		Library:      envStr("DJDECK_LIBRARY", "my-library.csv"),
		Conversion:   envStr("DJDECK_CONVERSION", "medium"),
		LogLevel:     envLevel("DJDECK_LOG_LEVEL", zerolog.InfoLevel),
		PollInterval: envDuration("DJDECK_POLL_INTERVAL", 500*time.Millisecond),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDuration accepts Go durations ("250ms") or plain milliseconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	return fallback
}

func envLevel(key string, fallback zerolog.Level) zerolog.Level {
	if v := os.Getenv(key); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			return l
		}
	}
	return fallback
}
