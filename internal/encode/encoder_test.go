package encode

import (
	"errors"
	"fmt"
	"testing"
)

// fakeCodec implements Codec with a configurable lookahead depth: a packet
// only becomes ready once more than lookahead frames have been submitted,
// mimicking codecs that buffer output internally.
type fakeCodec struct {
	frameSamples int
	channels     int
	lookahead    int

	frames  [][][]int16 // copies of every submitted frame
	held    int         // frames buffered inside the codec
	ready   [][]byte
	flushed bool
	closed  bool
	seq     byte
}

func newFakeCodec(frameSamples, channels, lookahead int) *fakeCodec {
	return &fakeCodec{frameSamples: frameSamples, channels: channels, lookahead: lookahead}
}

func (f *fakeCodec) FrameSamples() int { return f.frameSamples }
func (f *fakeCodec) Channels() int     { return f.channels }

func (f *fakeCodec) SendFrame(planar [][]int16) error {
	if planar == nil {
		f.flushed = true
		for f.held > 0 {
			f.emit()
		}
		return nil
	}

	frame := make([][]int16, len(planar))
	for ch, plane := range planar {
		frame[ch] = append([]int16(nil), plane...)
	}
	f.frames = append(f.frames, frame)

	f.held++
	if f.held > f.lookahead {
		f.emit()
	}
	return nil
}

func (f *fakeCodec) emit() {
	f.seq++
	f.ready = append(f.ready, []byte{0xA0, f.seq})
	f.held--
}

func (f *fakeCodec) ReceivePacket() ([]byte, error) {
	if len(f.ready) > 0 {
		p := f.ready[0]
		f.ready = f.ready[1:]
		return p, nil
	}
	if f.flushed {
		return nil, ErrDrained
	}
	return nil, ErrNeedMoreData
}

func (f *fakeCodec) Close() error {
	f.closed = true
	return nil
}

func newTestEncoder(frameSamples, channels, lookahead int) (*Encoder, *fakeCodec) {
	codec := newFakeCodec(frameSamples, channels, lookahead)
	enc := NewEncoderWithCodec(func(rate, ch int) (Codec, error) {
		return codec, nil
	})
	return enc, codec
}

func TestEncodeBeforeInitializeFails(t *testing.T) {
	enc, _ := newTestEncoder(4, 1, 0)
	if _, err := enc.Encode([]int16{1, 2, 3}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Encode before Initialize: got %v, want ErrNotInitialized", err)
	}
	if _, err := enc.Flush(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Flush before Initialize: got %v, want ErrNotInitialized", err)
	}
}

func TestInitializeRejectsBadConfig(t *testing.T) {
	enc, _ := newTestEncoder(4, 1, 0)
	if err := enc.Initialize(0, 1); err == nil {
		t.Error("Initialize accepted zero sample rate")
	}
	if err := enc.Initialize(48000, 0); err == nil {
		t.Error("Initialize accepted zero channels")
	}
	if enc.IsInitialized() {
		t.Error("encoder initialized after rejected configuration")
	}
}

func TestInitializeCodecOpenFailure(t *testing.T) {
	enc := NewEncoderWithCodec(func(rate, ch int) (Codec, error) {
		return nil, fmt.Errorf("unsupported rate %d", rate)
	})
	if err := enc.Initialize(44100, 2); err == nil {
		t.Fatal("Initialize succeeded despite codec open failure")
	}
	if enc.IsInitialized() {
		t.Error("encoder left initialized after codec open failure")
	}
}

func TestEncodeBuffersSubFrameInput(t *testing.T) {
	enc, codec := newTestEncoder(4, 1, 0)
	if err := enc.Initialize(48000, 1); err != nil {
		t.Fatal(err)
	}

	out, err := enc.Encode([]int16{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("sub-frame input produced %d output bytes, want 0", len(out))
	}
	if got := enc.BufferedSamples(); got != 3 {
		t.Errorf("BufferedSamples() = %d, want 3", got)
	}
	if len(codec.frames) != 0 {
		t.Errorf("codec received %d frames, want 0", len(codec.frames))
	}
}

func TestEncodeExactFrameConsumesBuffer(t *testing.T) {
	enc, codec := newTestEncoder(4, 1, 2)
	if err := enc.Initialize(48000, 1); err != nil {
		t.Fatal(err)
	}

	out, err := enc.Encode([]int16{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if got := enc.BufferedSamples(); got != 0 {
		t.Errorf("BufferedSamples() = %d, want 0", got)
	}
	if len(codec.frames) != 1 {
		t.Fatalf("codec received %d frames, want 1", len(codec.frames))
	}
	// Output may legitimately be empty while the codec holds lookahead.
	if len(out) != 0 {
		t.Errorf("lookahead-buffered codec produced %d bytes early", len(out))
	}
}

func TestEncodeEventuallyProducesOutput(t *testing.T) {
	enc, _ := newTestEncoder(4, 1, 2)
	if err := enc.Initialize(48000, 1); err != nil {
		t.Fatal(err)
	}

	var out []byte
	for i := range 5 {
		data, err := enc.Encode(make([]int16, 4))
		if err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		out = append(out, data...)
	}
	if len(out) == 0 {
		t.Error("no output after exceeding lookahead depth")
	}
}

func TestEncodeDeinterleavesFrames(t *testing.T) {
	enc, codec := newTestEncoder(3, 2, 0)
	if err := enc.Initialize(48000, 2); err != nil {
		t.Fatal(err)
	}

	// Interleaved [L0 R0 L1 R1 L2 R2]
	if _, err := enc.Encode([]int16{10, 20, 11, 21, 12, 22}); err != nil {
		t.Fatal(err)
	}

	if len(codec.frames) != 1 {
		t.Fatalf("codec received %d frames, want 1", len(codec.frames))
	}
	frame := codec.frames[0]
	wantL := []int16{10, 11, 12}
	wantR := []int16{20, 21, 22}
	for i := range 3 {
		if frame[0][i] != wantL[i] {
			t.Errorf("left plane[%d] = %d, want %d", i, frame[0][i], wantL[i])
		}
		if frame[1][i] != wantR[i] {
			t.Errorf("right plane[%d] = %d, want %d", i, frame[1][i], wantR[i])
		}
	}
}

func TestEncodeSplitsLongRuns(t *testing.T) {
	enc, codec := newTestEncoder(4, 1, 0)
	if err := enc.Initialize(48000, 1); err != nil {
		t.Fatal(err)
	}

	// 11 samples = 2 full frames + 3 leftover
	out, err := enc.Encode(make([]int16, 11))
	if err != nil {
		t.Fatal(err)
	}
	if len(codec.frames) != 2 {
		t.Errorf("codec received %d frames, want 2", len(codec.frames))
	}
	if got := enc.BufferedSamples(); got != 3 {
		t.Errorf("BufferedSamples() = %d, want 3", got)
	}
	if len(out) == 0 {
		t.Error("zero-lookahead codec produced no output for full frames")
	}
}

func TestFlushDrainsAndDiscardsLeftovers(t *testing.T) {
	enc, _ := newTestEncoder(4, 1, 2)
	if err := enc.Initialize(48000, 1); err != nil {
		t.Fatal(err)
	}

	// Three full frames leave two inside the codec's lookahead, plus
	// one sub-frame sample in the accumulation buffer.
	if _, err := enc.Encode(make([]int16, 13)); err != nil {
		t.Fatal(err)
	}

	flushed, err := enc.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if flushed != 2 {
		t.Errorf("Flush() drained %d packets, want 2", flushed)
	}
	if got := enc.BufferedSamples(); got != 0 {
		t.Errorf("leftover samples survived flush: %d", got)
	}
}

func TestFlushWithoutActivity(t *testing.T) {
	enc, _ := newTestEncoder(4, 1, 0)
	if err := enc.Initialize(48000, 1); err != nil {
		t.Fatal(err)
	}
	flushed, err := enc.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if flushed != 0 {
		t.Errorf("Flush() on idle encoder drained %d packets, want 0", flushed)
	}
}

func TestCleanupReturnsToUninitialized(t *testing.T) {
	enc, codec := newTestEncoder(4, 1, 0)
	if err := enc.Initialize(48000, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Encode(make([]int16, 6)); err != nil {
		t.Fatal(err)
	}

	if err := enc.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if !codec.closed {
		t.Error("Cleanup did not close the codec session")
	}
	if enc.IsInitialized() {
		t.Error("encoder still initialized after Cleanup")
	}
	if _, err := enc.Encode([]int16{1}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Encode after Cleanup: got %v, want ErrNotInitialized", err)
	}

	// Idempotent
	if err := enc.Cleanup(); err != nil {
		t.Errorf("second Cleanup returned %v", err)
	}
}

func TestDoubleInitializeFails(t *testing.T) {
	enc, _ := newTestEncoder(4, 1, 0)
	if err := enc.Initialize(48000, 1); err != nil {
		t.Fatal(err)
	}
	if err := enc.Initialize(48000, 1); err == nil {
		t.Error("second Initialize succeeded")
	}
}
