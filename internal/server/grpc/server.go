package grpc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/emmett/mictap/internal/app"
)

// Server wraps the gRPC server and the capture session it serves
type Server struct {
	grpcServer *grpc.Server
	session    *app.Session
	pump       *app.Pump
	port       int
}

// Config holds server configuration
type Config struct {
	Port    int
	Session app.SessionConfig
}

// NewServer creates a new gRPC server and starts its capture session
func NewServer(cfg Config) (*Server, error) {
	session := app.NewSession()
	if err := session.Start(cfg.Session); err != nil {
		return nil, fmt.Errorf("failed to start capture session: %w", err)
	}

	// The pump is the session's sole queue consumer: it fills the history
	// the query RPCs read and fans live chunks out to streaming clients,
	// so concurrent RPC handlers never touch the queue themselves.
	pump := app.NewPump(session, app.DrainInterval(cfg.Session.ChunkDurationMs))
	pump.Start()

	s := &Server{
		grpcServer: grpc.NewServer(),
		session:    session,
		pump:       pump,
		port:       cfg.Port,
	}

	captureService := NewCaptureService(session, pump)
	RegisterCaptureServer(s.grpcServer, captureService)

	return s, nil
}

// Start starts the gRPC server
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	fmt.Printf("gRPC server listening on :%d\n", s.port)
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server and closes the capture session
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
	s.pump.Stop()
	s.session.Close()
}

// RegisterCaptureServer is a placeholder until proto is generated
func RegisterCaptureServer(s *grpc.Server, srv *CaptureService) {
	// Will be replaced by generated code: mictappb.RegisterCaptureServer(s, srv)
}
