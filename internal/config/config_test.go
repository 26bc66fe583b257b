package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("default sample rate = %d, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("default channels = %d, want 1", cfg.Audio.Channels)
	}
	if cfg.Audio.ChunkDurationMs != 100 {
		t.Errorf("default chunk duration = %dms, want 100ms", cfg.Audio.ChunkDurationMs)
	}
	if cfg.Buffer.QueueCapacity != 100 {
		t.Errorf("default queue capacity = %d, want 100", cfg.Buffer.QueueCapacity)
	}
	if cfg.Server.Port != 50051 {
		t.Errorf("default server port = %d, want 50051", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestSamplesPerChunk(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.SamplesPerChunk(); got != 4800 {
		t.Errorf("SamplesPerChunk() = %d, want 4800", got)
	}

	cfg.Audio.SampleRate = 44100
	cfg.Audio.ChunkDurationMs = 250
	if got := cfg.SamplesPerChunk(); got != 11025 {
		t.Errorf("SamplesPerChunk() = %d, want 11025", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }},
		{"negative sample rate", func(c *Config) { c.Audio.SampleRate = -1 }},
		{"zero channels", func(c *Config) { c.Audio.Channels = 0 }},
		{"zero chunk duration", func(c *Config) { c.Audio.ChunkDurationMs = 0 }},
		{"zero queue capacity", func(c *Config) { c.Buffer.QueueCapacity = 0 }},
		{"zero history capacity", func(c *Config) { c.Buffer.HistoryCapacity = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted invalid config")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
audio:
  device: "USB Microphone"
  sample_rate: 44100
  channels: 2
  chunk_duration_ms: 50
buffer:
  queue_capacity: 200
encoder:
  enabled: true
  output: "out.opus"
server:
  port: 9090
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Audio.Device != "USB Microphone" {
		t.Errorf("device = %q, want %q", cfg.Audio.Device, "USB Microphone")
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 2 {
		t.Errorf("channels = %d, want 2", cfg.Audio.Channels)
	}
	if cfg.Buffer.QueueCapacity != 200 {
		t.Errorf("queue capacity = %d, want 200", cfg.Buffer.QueueCapacity)
	}
	if !cfg.Encoder.Enabled {
		t.Error("encoder not enabled")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}

	// Unset fields keep defaults
	if cfg.Buffer.HistoryCapacity != 100 {
		t.Errorf("history capacity = %d, want default 100", cfg.Buffer.HistoryCapacity)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("server host = %q, want default %q", cfg.Server.Host, "localhost")
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()

	badYAML := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("audio: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(badYAML); err == nil {
		t.Error("Load accepted malformed yaml")
	}

	badValues := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(badValues, []byte("audio:\n  sample_rate: -8000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(badValues); err == nil {
		t.Error("Load accepted config with invalid values")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}

func TestLoadWithFallbackExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("audio:\n  sample_rate: 16000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback() error: %v", err)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", cfg.Audio.SampleRate)
	}

	// Explicit path errors are not silently swallowed
	if _, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadWithFallback succeeded on a missing explicit path")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.Device = "Built-in"
	cfg.Audio.SampleRate = 24000
	cfg.Input.Hotkey = "ctrl+shift+r"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Save: %v", err)
	}
	if loaded.Audio.Device != cfg.Audio.Device {
		t.Errorf("device = %q, want %q", loaded.Audio.Device, cfg.Audio.Device)
	}
	if loaded.Audio.SampleRate != cfg.Audio.SampleRate {
		t.Errorf("sample rate = %d, want %d", loaded.Audio.SampleRate, cfg.Audio.SampleRate)
	}
	if loaded.Input.Hotkey != cfg.Input.Hotkey {
		t.Errorf("hotkey = %q, want %q", loaded.Input.Hotkey, cfg.Input.Hotkey)
	}
}
