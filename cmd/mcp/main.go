package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/emmett/mictap/internal/app"
	"github.com/emmett/mictap/internal/config"
	mcpserver "github.com/emmett/mictap/internal/server/mcp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	audioDevice = flag.String("device", "", "Audio input device name")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("mictap MCP v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if *audioDevice != "" {
		cfg.Audio.Device = *audioDevice
	}

	fmt.Fprintf(os.Stderr, "Starting MCP server (stdio transport), v%s\n", Version)

	server, err := mcpserver.NewServer(mcpserver.Config{
		ServerName:    "mictap",
		ServerVersion: Version,
		Session: app.SessionConfig{
			DeviceName:      cfg.Audio.Device,
			SampleRate:      cfg.Audio.SampleRate,
			Channels:        cfg.Audio.Channels,
			ChunkDurationMs: cfg.Audio.ChunkDurationMs,
			LatencyMs:       cfg.Audio.LatencyMs,
			QueueCapacity:   cfg.Buffer.QueueCapacity,
			HistoryCapacity: cfg.Buffer.HistoryCapacity,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
	defer server.Stop()

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
