package app

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/emmett/mictap/internal/audio"
)

// SessionConfig is the effective configuration of one capture session.
// Changing any field that affects sample-rate-dependent state requires a
// brand new stream context, never in-place mutation.
type SessionConfig struct {
	DeviceName      string
	SampleRate      int
	Channels        int
	ChunkDurationMs int
	LatencyMs       int
	QueueCapacity   int
	HistoryCapacity int
}

func (c SessionConfig) equal(o SessionConfig) bool {
	return c == o
}

func (c SessionConfig) samplesPerChunk() int {
	return c.SampleRate * c.ChunkDurationMs / 1000
}

func (c SessionConfig) periodFrames() uint32 {
	if c.LatencyMs > 0 {
		return uint32(c.SampleRate * c.LatencyMs / 1000)
	}
	// Default to 10 ms hardware periods
	return uint32(c.SampleRate / 100)
}

// Capturer is the device-facing surface a session drives
type Capturer interface {
	Start() error
	Close() error
	IsRunning() bool
}

// CaptureFactory builds the device layer for a stream context
type CaptureFactory func(audio.CaptureConfig, *audio.StreamContext) Capturer

func malgoCapture(cfg audio.CaptureConfig, stream *audio.StreamContext) Capturer {
	return audio.NewCapture(cfg, stream)
}

// Session owns the current capture session: the resolved device, the stream
// context and the device handles. The stream context is published through an
// atomic pointer, so readers always take a coherent snapshot and a
// reconfiguration can replace it without tearing down in-flight readers.
type Session struct {
	mu            sync.Mutex
	cfg           SessionConfig
	device        *audio.DeviceInfo
	capture       Capturer
	started       bool
	newCapture    CaptureFactory
	resolveDevice func(name string) (*audio.DeviceInfo, error)

	current atomic.Pointer[audio.StreamContext]
}

func malgoResolve(name string) (*audio.DeviceInfo, error) {
	if name != "" {
		return audio.FindDeviceByName(name)
	}
	return audio.DefaultDevice()
}

// NewSession creates a session backed by malgo devices
func NewSession() *Session {
	return &Session{newCapture: malgoCapture, resolveDevice: malgoResolve}
}

// NewSessionWithCapture creates a session with a custom device layer and
// device resolver
func NewSessionWithCapture(factory CaptureFactory, resolver func(name string) (*audio.DeviceInfo, error)) *Session {
	return &Session{newCapture: factory, resolveDevice: resolver}
}

// Start resolves the device and opens the first capture session
func (s *Session) Start(cfg SessionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("session already started")
	}
	return s.setup(cfg)
}

// Reconfigure applies a new configuration. When the effective configuration
// is unchanged the running session is kept as is; otherwise the old capture
// is closed and a fresh stream context, with a fresh clock anchor, replaces
// the published one.
func (s *Session) Reconfigure(cfg SessionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("session not started")
	}

	resolved, _, err := s.resolve(cfg)
	if err != nil {
		return err
	}
	if s.cfg.equal(resolved) {
		return nil
	}

	if s.capture != nil {
		if err := s.capture.Close(); err != nil {
			return fmt.Errorf("failed to close previous capture: %w", err)
		}
	}
	s.started = false
	return s.setup(cfg)
}

// resolve fills in the device name from enumeration so unchanged-config
// detection compares effective values, and rejects channel counts the
// resolved device cannot deliver
func (s *Session) resolve(cfg SessionConfig) (SessionConfig, *audio.DeviceInfo, error) {
	device, err := s.resolveDevice(cfg.DeviceName)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to resolve device: %w", err)
	}
	if device.MaxChannels > 0 && cfg.Channels > device.MaxChannels {
		return cfg, nil, fmt.Errorf("device %q supports at most %d channels, requested %d",
			device.Name, device.MaxChannels, cfg.Channels)
	}
	cfg.DeviceName = device.Name
	return cfg, device, nil
}

func (s *Session) setup(cfg SessionConfig) error {
	resolved, device, err := s.resolve(cfg)
	if err != nil {
		return err
	}

	format := audio.Format{SampleRate: resolved.SampleRate, Channels: resolved.Channels}
	stream := audio.NewStreamContext(audio.StreamConfig{
		Format:          format,
		SamplesPerChunk: resolved.samplesPerChunk(),
		QueueCapacity:   resolved.QueueCapacity,
		HistoryCapacity: resolved.HistoryCapacity,
	})

	capture := s.newCapture(audio.CaptureConfig{
		Format:       format,
		PeriodFrames: resolved.periodFrames(),
		DeviceID:     &device.ID,
	}, stream)

	if err := capture.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	s.cfg = resolved
	s.device = device
	s.capture = capture
	s.current.Store(stream)
	s.started = true
	return nil
}

// Stream returns a snapshot of the current stream context, or nil before
// Start. Callers keep using their snapshot safely across a reconfiguration.
func (s *Session) Stream() *audio.StreamContext {
	return s.current.Load()
}

// Device returns the resolved capture device
func (s *Session) Device() *audio.DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Config returns the effective session configuration
func (s *Session) Config() SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetRecording toggles chunk assembly on the current stream
func (s *Session) SetRecording(enabled bool) {
	if stream := s.current.Load(); stream != nil {
		stream.SetRecording(enabled)
	}
}

// Recording reports whether the current stream is assembling chunks
func (s *Session) Recording() bool {
	if stream := s.current.Load(); stream != nil {
		return stream.Recording()
	}
	return false
}

// Close stops the capture and releases the device
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	if s.capture != nil {
		return s.capture.Close()
	}
	return nil
}
