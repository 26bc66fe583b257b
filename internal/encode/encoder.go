package encode

import (
	"fmt"
	"log"
	"sync"
)

// CodecFactory opens a codec session for a sample rate and channel count
type CodecFactory func(sampleRate, channels int) (Codec, error)

// Encoder is the streaming encoder state machine. It has two states,
// uninitialized and ready: Initialize opens a codec session and allocates
// the reusable planar frame buffer; Encode accumulates interleaved samples
// and drains every complete frame through the codec; Flush finalizes the
// stream; Cleanup returns to the uninitialized baseline.
//
// The encoder has no internal concurrency model beyond a guard mutex; it is
// meant to be driven by a single owning goroutine.
type Encoder struct {
	mu          sync.Mutex
	newCodec    CodecFactory
	codec       Codec
	frame       [][]int16 // reusable planar frame buffer, one plane per channel
	pending     []int16   // accumulated interleaved samples, always < one frame after Encode
	sampleRate  int
	channels    int
	initialized bool
}

// NewEncoder creates an encoder that opens Opus codec sessions
func NewEncoder() *Encoder {
	return &Encoder{newCodec: NewOpusCodec}
}

// NewEncoderWithCodec creates an encoder with a custom codec factory
func NewEncoderWithCodec(factory CodecFactory) *Encoder {
	return &Encoder{newCodec: factory}
}

// Initialize opens a codec session for the given rate and channel count and
// transitions the encoder to ready. Fails, and stays uninitialized, when the
// codec rejects the configuration.
func (e *Encoder) Initialize(sampleRate, channels int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return fmt.Errorf("encoder already initialized")
	}
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid encoder configuration: %d Hz, %d channels", sampleRate, channels)
	}

	codec, err := e.newCodec(sampleRate, channels)
	if err != nil {
		return fmt.Errorf("failed to initialize codec: %w", err)
	}

	e.codec = codec
	e.frame = make([][]int16, channels)
	for ch := range e.frame {
		e.frame[ch] = make([]int16, codec.FrameSamples())
	}
	e.pending = e.pending[:0]
	e.sampleRate = sampleRate
	e.channels = channels
	e.initialized = true
	return nil
}

// Encode appends interleaved samples to the accumulation buffer, submits
// every complete frame to the codec and returns the compressed bytes that
// became ready. Output may be empty while the codec builds up lookahead;
// that is not an error.
func (e *Encoder) Encode(samples []int16) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, ErrNotInitialized
	}

	e.pending = append(e.pending, samples...)
	frameTotal := e.codec.FrameSamples() * e.channels

	var out []byte
	for len(e.pending) >= frameTotal {
		// De-interleave one frame's worth into the planar buffer:
		// [L0 R0 L1 R1 ...] becomes plane[0]=[L0 L1 ...], plane[1]=[R0 R1 ...].
		for ch := 0; ch < e.channels; ch++ {
			plane := e.frame[ch]
			for i := range plane {
				plane[i] = e.pending[i*e.channels+ch]
			}
		}

		if err := e.codec.SendFrame(e.frame); err != nil {
			return out, fmt.Errorf("failed to send frame to codec: %w", err)
		}

		// Drop the consumed samples, keeping the buffer's storage.
		n := copy(e.pending, e.pending[frameTotal:])
		e.pending = e.pending[:n]

		out = e.drainPackets(out)
	}

	return out, nil
}

// drainPackets appends every ready packet to out. ErrNeedMoreData and
// ErrDrained end the drain quietly; any other codec error is logged and
// encoding continues.
func (e *Encoder) drainPackets(out []byte) []byte {
	for {
		packet, err := e.codec.ReceivePacket()
		if err == nil {
			out = append(out, packet...)
			continue
		}
		if err != ErrNeedMoreData && err != ErrDrained {
			log.Printf("codec error while draining packets: %v", err)
		}
		return out
	}
}

// Flush signals end-of-stream to the codec, drains all remaining packets
// and returns how many were drained. Samples still in the accumulation
// buffer that never filled a frame are discarded.
func (e *Encoder) Flush() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return 0, ErrNotInitialized
	}

	if err := e.codec.SendFrame(nil); err != nil {
		return 0, fmt.Errorf("failed to flush codec: %w", err)
	}

	flushed := 0
	for {
		_, err := e.codec.ReceivePacket()
		if err != nil {
			if err != ErrNeedMoreData && err != ErrDrained {
				log.Printf("codec error while flushing: %v", err)
			}
			break
		}
		flushed++
	}

	if len(e.pending) > 0 {
		log.Printf("discarded %d unencoded samples at end of stream",
			len(e.pending)/e.channels)
		e.pending = e.pending[:0]
	}

	return flushed, nil
}

// Cleanup releases the codec session and resets the encoder to the
// uninitialized baseline. Idempotent.
func (e *Encoder) Cleanup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}

	err := e.codec.Close()
	e.codec = nil
	e.frame = nil
	e.pending = nil
	e.sampleRate = 0
	e.channels = 0
	e.initialized = false
	return err
}

// IsInitialized reports whether the encoder is ready
func (e *Encoder) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// BufferedSamples returns the number of interleaved samples waiting for a
// full frame
func (e *Encoder) BufferedSamples() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}
