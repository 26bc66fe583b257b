package audio

import "testing"

func testChunk(startNs int64) Chunk {
	return Chunk{
		Format:  Format{SampleRate: 48000, Channels: 1},
		Data:    []byte{1, 2, 3, 4},
		StartNs: startNs,
		EndNs:   startNs + 100,
	}
}

func TestQueuePushDrainOrder(t *testing.T) {
	q := NewChunkQueue(10)

	for i := range 5 {
		if !q.Push(testChunk(int64(i+1)), i) {
			t.Fatalf("push %d rejected below capacity", i)
		}
	}

	for i := range 5 {
		pc, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d returned nothing", i)
		}
		if pc.chunk.StartNs != int64(i+1) {
			t.Errorf("pop %d: got start %d, want %d", i, pc.chunk.StartNs, i+1)
		}
		if pc.slot != i {
			t.Errorf("pop %d: got slot %d, want %d", i, pc.slot, i)
		}
	}

	if _, ok := q.pop(); ok {
		t.Error("pop on empty queue returned a chunk")
	}
}

func TestQueueOverflowDropsSilently(t *testing.T) {
	q := NewChunkQueue(3)

	accepted := 0
	for i := range 8 {
		if q.Push(testChunk(int64(i+1)), i) {
			accepted++
		}
	}
	if accepted != 3 {
		t.Errorf("accepted %d pushes, want 3", accepted)
	}

	// The survivors are the oldest three, still in order.
	for i := range 3 {
		pc, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d returned nothing", i)
		}
		if pc.chunk.StartNs != int64(i+1) {
			t.Errorf("pop %d: got start %d, want %d", i, pc.chunk.StartNs, i+1)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("queue held more than its capacity")
	}
}

func TestQueueFull(t *testing.T) {
	q := NewChunkQueue(2)
	if q.Full() {
		t.Error("empty queue reported full")
	}
	q.Push(testChunk(1), 0)
	q.Push(testChunk(2), 1)
	if !q.Full() {
		t.Error("queue at capacity not reported full")
	}
	q.pop()
	if q.Full() {
		t.Error("queue reported full after pop")
	}
}

func TestChunkPoolRecycling(t *testing.T) {
	p := newChunkPool(2, 8)

	buf1, slot1, ok := p.get()
	if !ok || len(buf1) != 8 {
		t.Fatalf("get: ok=%v len=%d, want 8-byte buffer", ok, len(buf1))
	}
	_, _, ok = p.get()
	if !ok {
		t.Fatal("second get failed with capacity 2")
	}
	if _, _, ok := p.get(); ok {
		t.Error("get on exhausted pool succeeded")
	}

	p.put(slot1)
	if _, _, ok := p.get(); !ok {
		t.Error("get after put failed")
	}
}
