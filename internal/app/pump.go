package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/emmett/mictap/internal/audio"
)

// subscriberBuffer bounds each subscriber channel; a subscriber that falls
// further behind loses chunks rather than stalling the pump.
const subscriberBuffer = 16

// DrainInterval picks a queue polling period of half the chunk duration,
// floored at 10 ms
func DrainInterval(chunkMs int) time.Duration {
	d := time.Duration(chunkMs) * time.Millisecond / 2
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

// Pump owns the consumer side of a session's hand-off queue. The queue
// permits exactly one consumer, so anything with multiple readers routes
// them through a single pump: it drains newly captured chunks on a fixed
// interval, which records each one into the session's history, and fans
// the chunks out to subscribers.
type Pump struct {
	session  *Session
	interval time.Duration

	mu     sync.Mutex
	subs   map[int]chan audio.Chunk
	nextID int

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// NewPump creates a pump draining the session every interval
func NewPump(session *Session, interval time.Duration) *Pump {
	if interval <= 0 {
		interval = 25 * time.Millisecond
	}
	return &Pump{
		session:  session,
		interval: interval,
		subs:     make(map[int]chan audio.Chunk),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins draining on a background goroutine
func (p *Pump) Start() {
	p.startOnce.Do(func() {
		p.started.Store(true)
		go p.run()
	})
}

// Stop halts the drain loop after one final drain. Idempotent.
func (p *Pump) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	if p.started.Load() {
		<-p.done
	}
}

// Subscribe registers a receiver for live chunks. The returned cancel
// function unregisters it and closes the channel.
func (p *Pump) Subscribe() (<-chan audio.Chunk, func()) {
	ch := make(chan audio.Chunk, subscriberBuffer)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (p *Pump) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			// Pick up anything still queued before shutting down.
			p.drain()
			return
		case <-ticker.C:
			p.drain()
		}
	}
}

func (p *Pump) drain() {
	stream := p.session.Stream()
	if stream == nil {
		return
	}
	chunks := stream.DrainNewChunks()
	if len(chunks) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range chunks {
		for _, sub := range p.subs {
			select {
			case sub <- c:
			default:
			}
		}
	}
}
