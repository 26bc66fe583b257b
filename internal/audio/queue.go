package audio

import "sync/atomic"

// spscRing is a fixed-capacity single-producer/single-consumer ring.
// Push and Pop are wait-free: one slot is kept empty so the producer and
// consumer never contend on the same index. Exactly one goroutine may push
// and exactly one may pop; anything else is undefined.
type spscRing[T any] struct {
	slots []T
	head  atomic.Uint64 // next slot to pop, advanced by the consumer
	tail  atomic.Uint64 // next slot to push, advanced by the producer
}

func newSPSCRing[T any](capacity int) *spscRing[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &spscRing[T]{slots: make([]T, capacity+1)}
}

// push appends v and reports whether there was room. Producer side only.
func (r *spscRing[T]) push(v T) bool {
	tail := r.tail.Load()
	next := (tail + 1) % uint64(len(r.slots))
	if next == r.head.Load() {
		return false
	}
	r.slots[tail] = v
	r.tail.Store(next)
	return true
}

// pop removes the oldest entry. Consumer side only.
func (r *spscRing[T]) pop() (T, bool) {
	var zero T
	head := r.head.Load()
	if head == r.tail.Load() {
		return zero, false
	}
	v := r.slots[head]
	r.slots[head] = zero
	r.head.Store((head + 1) % uint64(len(r.slots)))
	return v, true
}

// full reports whether a push would fail. Producer side only.
func (r *spscRing[T]) full() bool {
	next := (r.tail.Load() + 1) % uint64(len(r.slots))
	return next == r.head.Load()
}

// pooledChunk is what actually travels through the hand-off queue: the chunk
// plus the arena slot its Data points into, so the consumer can return the
// buffer after copying the chunk out.
type pooledChunk struct {
	chunk Chunk
	slot  int
}

// ChunkQueue is the wait-free hand-off between the capture callback and the
// consumer. The producer never blocks, never locks and never allocates; when
// the queue is full the chunk is silently dropped. That bounded data loss is
// the accepted failure mode under backpressure.
type ChunkQueue struct {
	ring *spscRing[pooledChunk]
}

// DefaultQueueCapacity spans ~10 seconds at the default 100 ms chunk duration.
const DefaultQueueCapacity = 100

// NewChunkQueue creates a queue holding at most capacity chunks
func NewChunkQueue(capacity int) *ChunkQueue {
	return &ChunkQueue{ring: newSPSCRing[pooledChunk](capacity)}
}

// Push enqueues a chunk from the capture callback. Reports whether the chunk
// was accepted; a false return means it was dropped.
func (q *ChunkQueue) Push(c Chunk, slot int) bool {
	return q.ring.push(pooledChunk{chunk: c, slot: slot})
}

// Full reports whether the next Push would drop. Producer side only.
func (q *ChunkQueue) Full() bool {
	return q.ring.full()
}

// pop removes the oldest queued chunk. Consumer side only.
func (q *ChunkQueue) pop() (pooledChunk, bool) {
	return q.ring.pop()
}
