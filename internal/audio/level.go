package audio

import "math"

// LevelMeter tracks a smoothed RMS level across chunks, for display in the
// CLI status line
type LevelMeter struct {
	smoothing float64
	level     float64
}

// NewLevelMeter creates a meter. smoothing in [0, 1) controls how much of
// the previous level is retained per update; 0 tracks each chunk exactly.
func NewLevelMeter(smoothing float64) *LevelMeter {
	if smoothing < 0 || smoothing >= 1 {
		smoothing = 0
	}
	return &LevelMeter{smoothing: smoothing}
}

// Update feeds one chunk and returns the smoothed level in [0, 1]
func (m *LevelMeter) Update(c Chunk) float64 {
	rms := RMS(c.Data)
	m.level = m.smoothing*m.level + (1-m.smoothing)*rms
	return m.level
}

// Level returns the current smoothed level
func (m *LevelMeter) Level() float64 { return m.level }

// RMS computes the root-mean-square energy of interleaved 16-bit PCM data,
// normalized to [0, 1]
func RMS(data []byte) float64 {
	sampleCount := len(data) / 2
	if sampleCount == 0 {
		return 0
	}

	var sum float64
	for i := range sampleCount {
		sample := int16(data[i*2]) | int16(data[i*2+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}
	return math.Sqrt(sum / float64(sampleCount))
}
