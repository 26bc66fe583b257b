package audio

import "testing"

// recordingSink captures delivery arguments and returns a scripted
// continue signal
type recordingSink struct {
	calls       int
	deviceTimes []float64
	lastInput   []int16
	contSignal  bool
}

func (s *recordingSink) Capture(input []int16, deviceTime float64) bool {
	s.calls++
	s.deviceTimes = append(s.deviceTimes, deviceTime)
	s.lastInput = append(s.lastInput[:0], input...)
	return s.contSignal
}

func newSinkCapture(sink captureSink) *Capture {
	return &Capture{
		config:  CaptureConfig{Format: Format{SampleRate: 48000, Channels: 1}},
		sink:    sink,
		scratch: make([]int16, 64),
	}
}

func TestCaptureDeviceClockAdvances(t *testing.T) {
	sink := &recordingSink{contSignal: true}
	c := newSinkCapture(sink)

	c.onData(make([]byte, 96), 48)
	c.onData(make([]byte, 96), 48)
	c.onData(make([]byte, 96), 48)

	if sink.calls != 3 {
		t.Fatalf("sink received %d deliveries, want 3", sink.calls)
	}
	// 48 frames at 48 kHz advance the device clock by 1 ms per delivery.
	want := []float64{0, 0.001, 0.002}
	for i, w := range want {
		if sink.deviceTimes[i] != w {
			t.Errorf("delivery %d device time = %v, want %v", i, sink.deviceTimes[i], w)
		}
	}
	if c.stopping.Load() {
		t.Error("continuing sink latched a stop request")
	}
}

func TestCaptureStopSignal(t *testing.T) {
	sink := &recordingSink{contSignal: false}
	c := newSinkCapture(sink)

	c.onData(make([]byte, 8), 4)
	if sink.calls != 1 {
		t.Fatalf("sink received %d deliveries, want 1", sink.calls)
	}
	if !c.stopping.Load() {
		t.Fatal("stop signal from the sink was not latched")
	}

	// Deliveries after a stop request never reach the sink.
	c.onData(make([]byte, 8), 4)
	if sink.calls != 1 {
		t.Errorf("sink received a delivery after it signalled stop")
	}
}

func TestCaptureDecodesDelivery(t *testing.T) {
	sink := &recordingSink{contSignal: true}
	c := newSinkCapture(sink)

	// Two samples: 0x0102 and -2 (0xFFFE), little-endian.
	c.onData([]byte{0x02, 0x01, 0xFE, 0xFF}, 2)

	if len(sink.lastInput) != 2 {
		t.Fatalf("sink received %d samples, want 2", len(sink.lastInput))
	}
	if sink.lastInput[0] != 0x0102 || sink.lastInput[1] != -2 {
		t.Errorf("decoded samples = %v, want [258 -2]", sink.lastInput)
	}
}
