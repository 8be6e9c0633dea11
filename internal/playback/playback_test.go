package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_RewindClampsAtZero(t *testing.T) {
	s := New(332)
	s.Seek(5)
	s.Rewind(DefaultStep)
	assert.Equal(t, 0, s.CurrentTime)
}

func TestState_ForwardClampsAtDuration(t *testing.T) {
	s := New(332)
	s.Seek(330)
	s.Forward(DefaultStep)
	assert.Equal(t, 332, s.CurrentTime)
}

func TestState_SeekClamp(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-20, 0},
		{0, 0},
		{100, 100},
		{332, 332},
		{500, 332},
	}
	for _, tt := range tests {
		s := New(332)
		s.Seek(tt.in)
		assert.Equal(t, tt.want, s.CurrentTime, "seek %d", tt.in)
	}
}

func TestState_TickStopsAtDuration(t *testing.T) {
	s := New(3)
	s.Seek(1)
	s.Play()

	assert.True(t, s.Tick())
	assert.Equal(t, 2, s.CurrentTime)
	assert.False(t, s.Tick())
	assert.Equal(t, 3, s.CurrentTime)
	assert.False(t, s.IsPlaying)

	assert.False(t, s.Tick(), "paused state does not advance")
	assert.Equal(t, 3, s.CurrentTime)
}

func TestState_PlayAtEndIsNoop(t *testing.T) {
	s := New(10)
	s.Seek(10)
	s.Play()
	assert.False(t, s.IsPlaying)
}

func TestState_ToggleAndReset(t *testing.T) {
	s := New(60)
	s.Toggle()
	assert.True(t, s.IsPlaying)
	s.Toggle()
	assert.False(t, s.IsPlaying)

	s.Seek(30)
	s.Play()
	s.Reset()
	assert.Equal(t, State{Duration: 60}, s)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0:00", FormatClock(0))
	assert.Equal(t, "0:45", FormatClock(45))
	assert.Equal(t, "5:32", FormatClock(332))
	assert.Equal(t, "61:01", FormatClock(3661))
	assert.Equal(t, "0:00", FormatClock(-4))
}

func TestState_Range(t *testing.T) {
	s := New(332)
	s.Seek(45)
	assert.Equal(t, "0:45 - 5:32", s.Range())
}

// lockedState is how callers own the State a Player drives.
type lockedState struct {
	mu sync.Mutex
	s  State
}

func (l *lockedState) advance() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.Tick()
}

func (l *lockedState) get() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s
}

func TestPlayer_RunsToEnd(t *testing.T) {
	ls := &lockedState{s: New(3)}
	ls.s.Play()
	var ticks atomic.Int32

	p := NewPlayer(5 * time.Millisecond)
	p.Start(context.Background(), func() bool { ticks.Add(1); return ls.advance() })

	require.Eventually(t, func() bool {
		s := ls.get()
		return !s.IsPlaying && s.CurrentTime == 3
	}, time.Second, 5*time.Millisecond)

	<-p.Done()
	assert.Equal(t, int32(3), ticks.Load())
	assert.False(t, p.Running())
}

func TestPlayer_StopHaltsClock(t *testing.T) {
	ls := &lockedState{s: New(1000)}
	ls.s.Play()

	p := NewPlayer(5 * time.Millisecond)
	p.Start(context.Background(), ls.advance)
	time.Sleep(20 * time.Millisecond)

	ls.mu.Lock()
	p.Stop() // safe while holding the state lock
	ls.s.Pause()
	ls.mu.Unlock()
	<-p.Done()

	pos := ls.get().CurrentTime
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, pos, ls.get().CurrentTime)
	assert.False(t, p.Running())
}

func TestPlayer_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPlayer(5 * time.Millisecond)
	p.Start(ctx, func() bool { return true })
	cancel()
	<-p.Done()
	assert.Eventually(t, func() bool { return !p.Running() }, time.Second, time.Millisecond)
}

func TestPlayer_StartTwiceIsNoop(t *testing.T) {
	p := NewPlayer(time.Hour)
	p.Start(context.Background(), func() bool { return true })
	first := p.Done()
	p.Start(context.Background(), func() bool { return true })
	assert.Equal(t, first, p.Done())
	p.Stop()
	<-first
}
