package audio

import (
	"sync/atomic"
	"time"
)

// StreamConfig sizes the buffers owned by a StreamContext
type StreamConfig struct {
	// Format is the PCM layout delivered by the device
	Format Format

	// SamplesPerChunk is the number of frames accumulated per chunk
	// (e.g. sample rate / 10 for 100 ms chunks)
	SamplesPerChunk int

	// QueueCapacity bounds the hand-off queue (default 100)
	QueueCapacity int

	// HistoryCapacity bounds the history buffer (default 100)
	HistoryCapacity int
}

// StreamContext owns the state of one active capture session: the working
// accumulation buffer the callback fills, the one-time clock anchor, the
// wait-free hand-off queue and the consumer-side history buffer.
//
// Exactly two goroutines interact with it: the device's capture callback
// calls Capture, and one application goroutine calls everything else. A
// configuration change (device, rate, channels, latency) requires a brand
// new StreamContext; sample-rate-dependent state is never mutated in place.
type StreamContext struct {
	format          Format
	samplesPerChunk int

	queue   *ChunkQueue
	pool    *chunkPool
	history *History

	// Callback-only state. Pre-allocated at construction so the
	// steady-state capture path never touches the allocator.
	working      []int16
	sampleCount  int
	chunkStartNs int64

	// Clock anchor, written once by the callback on its first delivery.
	// The flag and baselines are only read on the callback goroutine
	// after it set them, so no cross-thread ordering is needed.
	anchored         atomic.Bool
	anchorDeviceTime float64
	anchorWall       time.Time

	recording atomic.Bool
	dropped   atomic.Uint64
}

// NewStreamContext creates the state for one capture session. Recording
// starts enabled.
func NewStreamContext(cfg StreamConfig) *StreamContext {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = DefaultHistoryCapacity
	}
	chunkBytes := cfg.SamplesPerChunk * cfg.Format.Channels * 2

	s := &StreamContext{
		format:          cfg.Format,
		samplesPerChunk: cfg.SamplesPerChunk,
		queue:           NewChunkQueue(cfg.QueueCapacity),
		pool:            newChunkPool(cfg.QueueCapacity+2, chunkBytes),
		history:         NewHistory(cfg.HistoryCapacity),
		working:         make([]int16, cfg.SamplesPerChunk*cfg.Format.Channels),
	}
	s.recording.Store(true)
	return s
}

// Format returns the PCM layout of this session
func (s *StreamContext) Format() Format { return s.format }

// SamplesPerChunk returns the number of frames per chunk
func (s *StreamContext) SamplesPerChunk() int { return s.samplesPerChunk }

// SetRecording enables or disables chunk assembly without restarting the
// session. Safe to call from any goroutine.
func (s *StreamContext) SetRecording(enabled bool) { s.recording.Store(enabled) }

// Recording reports whether chunk assembly is enabled
func (s *StreamContext) Recording() bool { return s.recording.Load() }

// Dropped returns the number of completed chunks lost to backpressure
func (s *StreamContext) Dropped() uint64 { return s.dropped.Load() }

// Capture is the real-time half of the pipeline, invoked by the device
// layer once per hardware buffer delivery. input holds interleaved 16-bit
// samples; deviceTime is the device-clock capture time of the first frame,
// in seconds on a stream-private clock. The return value is the stream's
// continue signal: false would stop the stream.
//
// Capture must stay free of blocking, locks and allocation; it only copies
// into pre-allocated buffers and pushes onto the wait-free queue.
func (s *StreamContext) Capture(input []int16, deviceTime float64) bool {
	if len(input) == 0 || !s.recording.Load() {
		return true
	}

	// First delivery: anchor the device clock to wall-clock time.
	if !s.anchored.Load() {
		s.anchorDeviceTime = deviceTime
		s.anchorWall = time.Now()
		s.anchored.Store(true)
	}

	elapsed := deviceTime - s.anchorDeviceTime
	channels := s.format.Channels
	frames := len(input) / channels

	for i := range frames {
		if s.sampleCount == 0 {
			s.chunkStartNs = s.sampleTimestamp(elapsed, i)
		}

		dst := s.sampleCount * channels
		src := i * channels
		for ch := range channels {
			s.working[dst+ch] = input[src+ch]
		}
		s.sampleCount++

		if s.sampleCount == s.samplesPerChunk {
			s.emitChunk()
			s.sampleCount = 0
		}
	}

	return true
}

// emitChunk packages the working buffer into a pooled chunk and hands it
// off. A full queue or exhausted pool drops the chunk silently.
func (s *StreamContext) emitChunk() {
	if s.queue.Full() {
		s.dropped.Add(1)
		return
	}
	buf, slot, ok := s.pool.get()
	if !ok {
		s.dropped.Add(1)
		return
	}

	EncodeSamples(buf, s.working)
	chunk := Chunk{
		Format:  s.format,
		Data:    buf,
		StartNs: s.chunkStartNs,
		EndNs:   s.chunkStartNs + durationNs(s.samplesPerChunk, s.format.SampleRate),
	}
	if !s.queue.Push(chunk, slot) {
		// Only the consumer made room since the Full check, so this
		// cannot happen; keep the accounting honest anyway.
		s.dropped.Add(1)
		s.pool.put(slot)
	}
}

// sampleTimestamp converts a device-clock offset to an absolute wall-clock
// timestamp: anchor + elapsed + sampleIndex/rate seconds. The arithmetic
// stays in floating-point seconds and is rounded to integer nanoseconds
// only here, at the point of storage.
func (s *StreamContext) sampleTimestamp(elapsed float64, sampleIndex int) int64 {
	secondsPerSample := 1.0 / float64(s.format.SampleRate)
	offset := elapsed + float64(sampleIndex)*secondsPerSample
	return s.anchorWall.UnixNano() + int64(offset*float64(time.Second))
}

func durationNs(samples, sampleRate int) int64 {
	return int64(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// DrainNewChunks removes every chunk currently in the hand-off queue,
// records each into the history buffer and returns them oldest first. The
// pooled buffers are recycled; the returned chunks own their storage.
// Consumer goroutine only.
func (s *StreamContext) DrainNewChunks() []Chunk {
	var result []Chunk
	for {
		pc, ok := s.queue.pop()
		if !ok {
			return result
		}
		chunk := pc.chunk.Clone()
		s.pool.put(pc.slot)

		s.history.Record(chunk)
		result = append(result, chunk)
	}
}

// QueryRange returns history chunks whose start timestamp lies in
// [startNs, endNs)
func (s *StreamContext) QueryRange(startNs, endNs int64) []Chunk {
	return s.history.QueryRange(startNs, endNs)
}

// AvailableRange returns the time span covered by the history buffer,
// or (0, 0) when it holds nothing
func (s *StreamContext) AvailableRange() (int64, int64) {
	return s.history.AvailableRange()
}
