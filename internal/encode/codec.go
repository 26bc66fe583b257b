// Package encode compresses accumulated PCM into a streamed, frame-oriented
// audio encoding. The Encoder buffers arbitrary-length sample runs and cuts
// them into the fixed-size frames its codec session consumes.
package encode

import "errors"

var (
	// ErrNotInitialized is returned when Encode or Flush is called before
	// Initialize, or after Cleanup
	ErrNotInitialized = errors.New("encoder not initialized")

	// ErrNeedMoreData is the codec's "not enough input yet" response.
	// Expected control flow during draining, not a failure.
	ErrNeedMoreData = errors.New("codec needs more data")

	// ErrDrained signals that a flushed codec has no packets left
	ErrDrained = errors.New("codec drained")
)

// Codec is one open compression session, bound to a sample rate and channel
// count at creation. It follows a submit/drain shape: frames go in planar
// (one sample slice per channel), compressed packets come out zero or more
// at a time, since a codec may buffer lookahead internally.
type Codec interface {
	// FrameSamples returns the fixed number of samples per channel the
	// codec consumes per frame
	FrameSamples() int

	// Channels returns the channel count the session was opened with
	Channels() int

	// SendFrame submits one planar frame of exactly FrameSamples samples
	// per channel. A nil frame signals end of stream.
	SendFrame(planar [][]int16) error

	// ReceivePacket returns the next compressed packet, ErrNeedMoreData
	// when the codec is waiting on further input, or ErrDrained once a
	// flushed session has nothing left.
	ReceivePacket() ([]byte, error)

	// Close releases the session
	Close() error
}
