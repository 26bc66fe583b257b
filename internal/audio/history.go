package audio

import "sync"

// historySlot pairs a stored chunk with an explicit occupancy flag, so a
// chunk legitimately starting at timestamp 0 is not mistaken for an empty
// slot.
type historySlot struct {
	chunk    Chunk
	occupied bool
}

// History is a fixed-capacity circular store of the most recent chunks,
// supporting timestamp-range and availability queries. It is owned by the
// consumer thread; the capture callback never touches it, so the mutex is
// only ever contended between application goroutines.
type History struct {
	mu       sync.Mutex
	slots    []historySlot
	writeIdx int
}

// DefaultHistoryCapacity matches the hand-off queue: ~10 seconds of audio at
// the default 100 ms chunk duration.
const DefaultHistoryCapacity = 100

// NewHistory creates a history buffer holding at most capacity chunks
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{slots: make([]historySlot, capacity)}
}

// Record stores a copy of the chunk at the write cursor, overwriting the
// oldest entry once the buffer is full.
func (h *History) Record(c Chunk) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.slots[h.writeIdx] = historySlot{chunk: c.Clone(), occupied: true}
	h.writeIdx = (h.writeIdx + 1) % len(h.slots)
}

// QueryRange returns copies of every stored chunk whose start timestamp lies
// in [startNs, endNs). The result follows buffer scan order; no further
// ordering is guaranteed.
func (h *History) QueryRange(startNs, endNs int64) []Chunk {
	h.mu.Lock()
	defer h.mu.Unlock()

	var result []Chunk
	for i := range h.slots {
		if !h.slots[i].occupied {
			continue
		}
		c := h.slots[i].chunk
		if c.StartNs >= startNs && c.StartNs < endNs {
			result = append(result, c.Clone())
		}
	}
	return result
}

// AvailableRange returns the minimum start timestamp and maximum end
// timestamp across all stored chunks, or (0, 0) when the buffer is empty.
func (h *History) AvailableRange() (int64, int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var oldest, newest int64
	found := false
	for i := range h.slots {
		if !h.slots[i].occupied {
			continue
		}
		c := h.slots[i].chunk
		if !found || c.StartNs < oldest {
			oldest = c.StartNs
		}
		if c.EndNs > newest {
			newest = c.EndNs
		}
		found = true
	}
	if !found {
		return 0, 0
	}
	return oldest, newest
}

// Len returns the number of occupied slots
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for i := range h.slots {
		if h.slots[i].occupied {
			n++
		}
	}
	return n
}
