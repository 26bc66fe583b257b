package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Audio capture settings
	Audio struct {
		Device          string `yaml:"device"`
		SampleRate      int    `yaml:"sample_rate"`
		Channels        int    `yaml:"channels"`
		ChunkDurationMs int    `yaml:"chunk_duration_ms"`
		LatencyMs       int    `yaml:"latency_ms"`
	} `yaml:"audio"`

	// Buffer settings
	Buffer struct {
		QueueCapacity   int `yaml:"queue_capacity"`
		HistoryCapacity int `yaml:"history_capacity"`
	} `yaml:"buffer"`

	// Encoder settings
	Encoder struct {
		Enabled bool   `yaml:"enabled"`
		Output  string `yaml:"output"`
	} `yaml:"encoder"`

	// Input settings
	Input struct {
		Hotkey string `yaml:"hotkey"`
	} `yaml:"input"`

	// Server settings
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Audio defaults: 100ms chunks of 16-bit mono at 48kHz
	cfg.Audio.Device = ""
	cfg.Audio.SampleRate = 48000
	cfg.Audio.Channels = 1
	cfg.Audio.ChunkDurationMs = 100
	cfg.Audio.LatencyMs = 0

	// Buffer defaults: ~10 seconds at 100ms chunks
	cfg.Buffer.QueueCapacity = 100
	cfg.Buffer.HistoryCapacity = 100

	// Encoder defaults
	cfg.Encoder.Enabled = false
	cfg.Encoder.Output = ""

	// Input defaults
	cfg.Input.Hotkey = ""

	// Server defaults
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 50051

	return cfg
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels < 1 {
		return fmt.Errorf("channels must be at least 1, got %d", c.Audio.Channels)
	}
	if c.Audio.ChunkDurationMs <= 0 {
		return fmt.Errorf("chunk_duration_ms must be positive, got %d", c.Audio.ChunkDurationMs)
	}
	if c.Buffer.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be at least 1, got %d", c.Buffer.QueueCapacity)
	}
	if c.Buffer.HistoryCapacity < 1 {
		return fmt.Errorf("history_capacity must be at least 1, got %d", c.Buffer.HistoryCapacity)
	}
	return nil
}

// SamplesPerChunk derives the chunk size in frames from the configured
// sample rate and chunk duration
func (c *Config) SamplesPerChunk() int {
	return c.Audio.SampleRate * c.Audio.ChunkDurationMs / 1000
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadWithFallback attempts to load configuration from multiple locations.
// Priority: explicit path > ~/.mictaprc > /etc/mictap/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, ".mictaprc")
		if _, err := os.Stat(userConfigPath); err == nil {
			cfg, err := Load(userConfigPath)
			if err == nil {
				return cfg, nil
			}
		}
	}

	systemConfigPath := "/etc/mictap/config.yaml"
	if _, err := os.Stat(systemConfigPath); err == nil {
		cfg, err := Load(systemConfigPath)
		if err == nil {
			return cfg, nil
		}
	}

	// No config file found, return defaults
	return DefaultConfig(), nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
