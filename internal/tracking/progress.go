package tracking

import (
	"context"
	"math/rand"
	"time"
)

const (
	DefaultProgressDuration = 2 * time.Second
	DefaultProgressTick     = 50 * time.Millisecond
	DefaultOverlayTTL       = 4 * time.Second

	JitterSpan = 5.0
	PinMin     = 10.0
	PinMax     = 90.0
)

// Pin is a map marker in percent coordinates.
type Pin struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visible bool    `json:"visible"`
}

// Jitter moves the pin by a uniform ±JitterSpan on each axis, clamped to
// [PinMin,PinMax]. Pass a seeded source for reproducible results.
func Jitter(p Pin, rng *rand.Rand) Pin {
	p.X = clamp(p.X+(rng.Float64()*2-1)*JitterSpan, PinMin, PinMax)
	p.Y = clamp(p.Y+(rng.Float64()*2-1)*JitterSpan, PinMin, PinMax)
	return p
}

// Percent is the linear progress after elapsed out of total, in [0,100].
func Percent(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 100
	}
	return clamp(float64(elapsed)/float64(total)*100, 0, 100)
}

// Progress animates 0→100 over Duration in Tick steps.
type Progress struct {
	Duration time.Duration
	Tick     time.Duration
}

func (p Progress) withDefaults() Progress {
	if p.Duration <= 0 {
		p.Duration = DefaultProgressDuration
	}
	if p.Tick <= 0 {
		p.Tick = DefaultProgressTick
	}
	return p
}

// Run calls onStep with each value and returns once 100 is reached.
// It returns ctx.Err() if cancelled first.
func (p Progress) Run(ctx context.Context, onStep func(percent float64)) error {
	p = p.withDefaults()
	steps := int(p.Duration / p.Tick)
	if steps < 1 {
		steps = 1
	}

	ticker := time.NewTicker(p.Tick)
	defer ticker.Stop()

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if onStep != nil {
				onStep(Percent(time.Duration(i)*p.Tick, p.Duration))
			}
		}
	}
	return nil
}
