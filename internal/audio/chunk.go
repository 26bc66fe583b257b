package audio

import "fmt"

// Format describes the PCM layout of a captured stream: 16-bit signed
// little-endian samples, interleaved when Channels > 1.
type Format struct {
	// SampleRate is the number of frames per second (Hz)
	SampleRate int

	// Channels is the number of interleaved channels (1 = mono, 2 = stereo)
	Channels int
}

// String returns a human-readable representation of the format
func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, s16le", f.SampleRate, f.Channels)
}

// Chunk is one fixed-duration slice of captured audio. Chunks are produced
// exactly once by the capture callback and passed around by value; the Data
// slice is never mutated after the chunk is created.
type Chunk struct {
	// Format is the PCM layout of Data
	Format Format

	// Data holds interleaved 16-bit little-endian samples
	Data []byte

	// StartNs is the wall-clock capture time of the first sample,
	// in nanoseconds since the Unix epoch
	StartNs int64

	// EndNs is StartNs plus the chunk duration
	EndNs int64
}

// Frames returns the number of sample frames in the chunk
func (c Chunk) Frames() int {
	if c.Format.Channels == 0 {
		return 0
	}
	return len(c.Data) / 2 / c.Format.Channels
}

// Samples decodes Data into int16 PCM samples
func (c Chunk) Samples() []int16 {
	return BytesToSamples(c.Data)
}

// Clone returns a copy of the chunk with its own Data storage
func (c Chunk) Clone() Chunk {
	out := c
	out.Data = make([]byte, len(c.Data))
	copy(out.Data, c.Data)
	return out
}

// SamplesToBytes converts int16 PCM samples to little-endian bytes
func SamplesToBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	EncodeSamples(b, samples)
	return b
}

// EncodeSamples writes samples into dst as little-endian bytes.
// dst must hold at least len(samples)*2 bytes.
func EncodeSamples(dst []byte, samples []int16) {
	for i, s := range samples {
		dst[i*2] = byte(s)
		dst[i*2+1] = byte(s >> 8)
	}
}

// BytesToSamples converts little-endian bytes to int16 PCM samples
func BytesToSamples(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	DecodeSamples(samples, b)
	return samples
}

// DecodeSamples reads little-endian bytes into dst.
// dst must hold at least len(b)/2 samples.
func DecodeSamples(dst []int16, b []byte) {
	for i := range len(b) / 2 {
		dst[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
}
