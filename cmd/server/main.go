package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emmett/mictap/internal/app"
	"github.com/emmett/mictap/internal/config"
	grpcserver "github.com/emmett/mictap/internal/server/grpc"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	port        = flag.Int("port", 0, "gRPC server port (default: 50051)")
	audioDevice = flag.String("device", "", "Audio input device name")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("mictap gRPC Server v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	fmt.Printf("mictap gRPC Server v%s (commit: %s)\n", Version, GitCommit)

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *audioDevice != "" {
		cfg.Audio.Device = *audioDevice
	}

	serverCfg := grpcserver.Config{
		Port: cfg.Server.Port,
		Session: app.SessionConfig{
			DeviceName:      cfg.Audio.Device,
			SampleRate:      cfg.Audio.SampleRate,
			Channels:        cfg.Audio.Channels,
			ChunkDurationMs: cfg.Audio.ChunkDurationMs,
			LatencyMs:       cfg.Audio.LatencyMs,
			QueueCapacity:   cfg.Buffer.QueueCapacity,
			HistoryCapacity: cfg.Buffer.HistoryCapacity,
		},
	}

	server, err := grpcserver.NewServer(serverCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		server.Stop()
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
