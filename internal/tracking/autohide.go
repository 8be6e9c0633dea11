package tracking

import (
	"sync"
	"time"
)

// AutoHide runs a callback ttl after the last Show; each Show supersedes the
// previous timer.
type AutoHide struct {
	ttl time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewAutoHide(ttl time.Duration) *AutoHide {
	if ttl <= 0 {
		ttl = DefaultOverlayTTL
	}
	return &AutoHide{ttl: ttl}
}

func (a *AutoHide) Show(hide func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(a.ttl, func() {
		a.mu.Lock()
		if a.timer == t {
			a.timer = nil
		}
		a.mu.Unlock()
		hide()
	})
	a.timer = t
}

// Pending reports whether a hide is scheduled and has not fired yet.
func (a *AutoHide) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Stop cancels a pending hide. Reports whether one was pending.
func (a *AutoHide) Stop() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer == nil {
		return false
	}
	stopped := a.timer.Stop()
	a.timer = nil
	return stopped
}
