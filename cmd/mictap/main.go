package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/emmett/mictap/internal/app"
	"github.com/emmett/mictap/internal/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file (default: ~/.mictaprc or /etc/mictap/config.yaml)")
	audioDevice  = flag.String("device", "", "Audio input device name (use --list-devices to see available devices)")
	listDevices  = flag.Bool("list-devices", false, "List all available audio input devices")
	sampleRate   = flag.Int("rate", 0, "Sample rate in Hz (default: 48000)")
	channels     = flag.Int("channels", 0, "Channel count (default: 1)")
	chunkMs      = flag.Int("chunk-ms", 0, "Chunk duration in milliseconds (default: 100)")
	hotkeyStr    = flag.String("hotkey", "", "Global hotkey to toggle recording (e.g. \"ctrl+shift+r\")")
	encodeOutput = flag.String("encode", "", "Write the Opus-encoded stream to this file")
	wavOutput    = flag.String("wav", "", "Dump the history buffer to this WAV file on exit")
	showVersion  = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("mictap v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	if *listDevices {
		dm := app.NewDeviceManager()
		if err := dm.ListDevices(); err != nil {
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	applyFlags(cfg)

	fmt.Printf("mictap v%s (commit: %s)\n", Version, GitCommit)

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags overrides config file values with explicitly set flags
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Audio.Device = *audioDevice
		case "rate":
			cfg.Audio.SampleRate = *sampleRate
		case "channels":
			cfg.Audio.Channels = *channels
		case "chunk-ms":
			cfg.Audio.ChunkDurationMs = *chunkMs
		case "hotkey":
			cfg.Input.Hotkey = *hotkeyStr
		case "encode":
			cfg.Encoder.Enabled = true
			cfg.Encoder.Output = *encodeOutput
		}
	})
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	recorderConfig := app.RecorderConfig{
		Session: app.SessionConfig{
			DeviceName:      cfg.Audio.Device,
			SampleRate:      cfg.Audio.SampleRate,
			Channels:        cfg.Audio.Channels,
			ChunkDurationMs: cfg.Audio.ChunkDurationMs,
			LatencyMs:       cfg.Audio.LatencyMs,
			QueueCapacity:   cfg.Buffer.QueueCapacity,
			HistoryCapacity: cfg.Buffer.HistoryCapacity,
		},
		Hotkey:    cfg.Input.Hotkey,
		WAVOutput: *wavOutput,
	}
	if cfg.Encoder.Enabled {
		recorderConfig.EncodeOutput = cfg.Encoder.Output
	}

	recorder := app.NewRecorder(recorderConfig)
	return recorder.Run()
}
