package encode

import (
	"fmt"

	"layeh.com/gopus"
)

// Opus frame and rate settings. Opus consumes fixed 20 ms frames and only
// accepts 8/12/16/24/48 kHz input; anything else is rejected at open time.
const (
	opusFrameMs = 20
	opusBitrate = 192000
)

// opusCodec adapts a gopus encoder to the Codec submit/drain interface.
// gopus produces exactly one packet per submitted frame, so the drain side
// is a short queue; the interface still reports ErrNeedMoreData between
// submissions so callers handle lookahead-style codecs uniformly.
type opusCodec struct {
	enc          *gopus.Encoder
	channels     int
	frameSamples int

	interleaved []int16 // reusable submit buffer
	packets     [][]byte
	flushed     bool
}

// NewOpusCodec opens an Opus session for the given rate and channel count
func NewOpusCodec(sampleRate, channels int) (Codec, error) {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to open opus encoder (%d Hz, %d ch): %w",
			sampleRate, channels, err)
	}
	enc.SetBitrate(opusBitrate)

	frameSamples := sampleRate * opusFrameMs / 1000
	return &opusCodec{
		enc:          enc,
		channels:     channels,
		frameSamples: frameSamples,
		interleaved:  make([]int16, frameSamples*channels),
	}, nil
}

func (o *opusCodec) FrameSamples() int { return o.frameSamples }

func (o *opusCodec) Channels() int { return o.channels }

func (o *opusCodec) SendFrame(planar [][]int16) error {
	if o.flushed {
		return fmt.Errorf("opus: send after flush")
	}
	if planar == nil {
		o.flushed = true
		return nil
	}
	if len(planar) != o.channels {
		return fmt.Errorf("opus: got %d planes, want %d", len(planar), o.channels)
	}

	// Opus wants interleaved input; re-interleave the planes into the
	// reusable submit buffer.
	for ch, plane := range planar {
		for i, s := range plane {
			o.interleaved[i*o.channels+ch] = s
		}
	}

	packet, err := o.enc.Encode(o.interleaved, o.frameSamples, len(o.interleaved)*2)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}
	o.packets = append(o.packets, packet)
	return nil
}

func (o *opusCodec) ReceivePacket() ([]byte, error) {
	if len(o.packets) > 0 {
		packet := o.packets[0]
		o.packets = o.packets[1:]
		return packet, nil
	}
	if o.flushed {
		return nil, ErrDrained
	}
	return nil, ErrNeedMoreData
}

func (o *opusCodec) Close() error {
	o.enc = nil
	o.packets = nil
	return nil
}
