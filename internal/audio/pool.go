package audio

// chunkPool is a fixed arena of pre-sized chunk buffers recycled between the
// capture callback and the consumer, so the steady-state producer path never
// calls the allocator. Free buffers travel through an SPSC ring with the
// roles reversed: the consumer pushes buffers back, the callback pops them.
//
// The pool is sized slightly larger than the hand-off queue so the callback
// always finds a buffer while the queue has room; if both run dry the chunk
// is dropped, the same silent-loss policy the queue applies.
type chunkPool struct {
	buffers [][]byte
	free    *spscRing[int]
}

func newChunkPool(capacity, bufBytes int) *chunkPool {
	p := &chunkPool{
		buffers: make([][]byte, capacity),
		free:    newSPSCRing[int](capacity),
	}
	for i := range p.buffers {
		p.buffers[i] = make([]byte, bufBytes)
		p.free.push(i)
	}
	return p
}

// get takes a free buffer. Callback side only.
func (p *chunkPool) get() ([]byte, int, bool) {
	slot, ok := p.free.pop()
	if !ok {
		return nil, 0, false
	}
	return p.buffers[slot], slot, true
}

// put returns a buffer after the consumer has copied the chunk out.
// Consumer side only.
func (p *chunkPool) put(slot int) {
	p.free.push(slot)
}
