package playback

import (
	"context"
	"sync"
	"time"
)

// Player is the playback clock. While running it calls advance once per
// interval; advance moves the owning State (usually via Tick) and reports
// whether playback continues. The State itself lives with the caller so that
// it can be mutated under the caller's own lock.
type Player struct {
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlayer(interval time.Duration) *Player {
	if interval <= 0 {
		interval = time.Second
	}
	return &Player{interval: interval}
}

// Start begins ticking; calling it while running is a no-op.
func (p *Player) Start(ctx context.Context, advance func() bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done, advance)
}

// Stop cancels the clock without waiting, so it is safe to call while holding
// a lock that advance also takes. A tick already in flight may still run;
// advance must therefore be a no-op on a paused State.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Done is closed when the current run exits. Nil if never started.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *Player) run(ctx context.Context, done chan struct{}, advance func() bool) {
	defer close(done)
	defer p.release(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil || !advance() {
				return
			}
		}
	}
}

// release clears the running state if it still belongs to this run.
func (p *Player) release(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == done && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
