package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/mictap/internal/app"
)

type Config struct {
	ServerName    string
	ServerVersion string
	Session       app.SessionConfig
}

type Server struct {
	config    Config
	mcpServer *sdk.Server
	session   *app.Session
	pump      *app.Pump
}

func NewServer(cfg Config) (*Server, error) {
	s := &Server{
		config:  cfg,
		session: app.NewSession(),
	}

	if err := s.session.Start(cfg.Session); err != nil {
		return nil, fmt.Errorf("failed to start capture session: %w", err)
	}

	// The pump is the session's sole queue consumer; without it the
	// hand-off queue saturates and the history the tools query stays
	// empty.
	s.pump = app.NewPump(s.session, app.DrainInterval(cfg.Session.ChunkDurationMs))
	s.pump.Start()

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()

	return s, nil
}

func (s *Server) Start() error {
	return s.mcpServer.Run(context.Background(), &sdk.StdioTransport{})
}

func (s *Server) Stop() error {
	s.pump.Stop()
	return s.session.Close()
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "capture_status",
		Description: "Report the capture device, recording state and available time range",
	}, s.handleCaptureStatus)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "query_audio",
		Description: "Fetch captured audio for a time range as base64-encoded WAV",
	}, s.handleQueryAudio)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "set_recording",
		Description: "Enable or disable recording without restarting the capture session",
	}, s.handleSetRecording)
}
