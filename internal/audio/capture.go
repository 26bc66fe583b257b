package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// CaptureConfig holds configuration for a capture session
type CaptureConfig struct {
	// Format is the requested PCM layout
	Format Format

	// PeriodFrames is the number of frames per hardware buffer delivery.
	// Smaller = lower latency, higher CPU usage.
	PeriodFrames uint32

	// DeviceID selects a specific capture device; nil uses the default
	DeviceID *malgo.DeviceID
}

// DefaultCaptureConfig returns a configuration for 100 ms deliveries of
// 16-bit mono at 48 kHz on the default device
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Format:       Format{SampleRate: 48000, Channels: 1},
		PeriodFrames: 4800,
	}
}

// captureSink receives decoded deliveries from the device callback and
// reports whether the stream should continue
type captureSink interface {
	Capture(input []int16, deviceTime float64) bool
}

// Capture owns the device handles for one session and bridges the device's
// data callback to a StreamContext. Close releases the malgo device and
// context on every path; Start cleans up after itself on failure, so a
// Capture never leaks native handles.
type Capture struct {
	config CaptureConfig
	sink   captureSink

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	running  bool

	// Set when the sink signals stop; further deliveries are ignored
	// while the device tears down.
	stopping atomic.Bool

	// Callback-only state: scratch decode buffer and the cumulative
	// device clock, in frames delivered since the stream started.
	scratch         []int16
	framesDelivered uint64
}

// NewCapture creates a capture session feeding the given stream context
func NewCapture(config CaptureConfig, stream *StreamContext) *Capture {
	return &Capture{
		config:  config,
		sink:    stream,
		scratch: make([]int16, int(config.PeriodFrames)*config.Format.Channels),
	}
}

// Start opens the device and begins delivering audio to the stream context
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(c.config.Format.Channels)
	deviceConfig.SampleRate = uint32(c.config.Format.SampleRate)
	deviceConfig.PeriodSizeInFrames = c.config.PeriodFrames
	if c.config.DeviceID != nil {
		deviceConfig.Capture.DeviceID = c.config.DeviceID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSamples, pInputSamples []byte, framecount uint32) {
			c.onData(pInputSamples, framecount)
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return fmt.Errorf("failed to initialize device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return fmt.Errorf("failed to start device: %w", err)
	}

	c.malgoCtx = malgoCtx
	c.device = device
	c.running = true
	c.stopping.Store(false)
	return nil
}

// onData runs on the device's capture goroutine. malgo reports no
// per-delivery capture timestamp, so the device clock is derived from the
// cumulative frame count, which advances at exactly the device's rate.
func (c *Capture) onData(input []byte, framecount uint32) {
	if c.stopping.Load() {
		return
	}

	deviceTime := float64(c.framesDelivered) / float64(c.config.Format.SampleRate)
	c.framesDelivered += uint64(framecount)

	n := int(framecount) * c.config.Format.Channels
	if n*2 > len(input) {
		n = len(input) / 2
	}
	if n > len(c.scratch) {
		// Oversized delivery; growing here is rare and bounded.
		c.scratch = make([]int16, n)
	}
	DecodeSamples(c.scratch[:n], input[:n*2])

	if !c.sink.Capture(c.scratch[:n], deviceTime) {
		// The sink asked to stop. The device cannot be torn down from
		// its own callback thread, so hand the close to another
		// goroutine and ignore deliveries until it lands.
		if c.stopping.CompareAndSwap(false, true) {
			go c.Close()
		}
	}
}

// Close stops the device and releases all native handles. Idempotent.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	var firstErr error
	if c.device != nil {
		if err := c.device.Stop(); err != nil {
			firstErr = fmt.Errorf("failed to stop device: %w", err)
		}
		c.device.Uninit()
		c.device = nil
	}
	if c.malgoCtx != nil {
		if err := c.malgoCtx.Uninit(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to uninit context: %w", err)
		}
		c.malgoCtx.Free()
		c.malgoCtx = nil
	}
	return firstErr
}

// IsRunning reports whether the device is currently delivering audio
func (c *Capture) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
