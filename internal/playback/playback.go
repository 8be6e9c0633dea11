package playback

import "fmt"

// DefaultStep is the rewind/forward jump in seconds.
const DefaultStep = 10

// State models a scrubbable clip position. Times are whole seconds.
type State struct {
	CurrentTime int  `json:"current_time"`
	Duration    int  `json:"duration"`
	IsPlaying   bool `json:"is_playing"`
}

func New(duration int) State {
	if duration < 0 {
		duration = 0
	}
	return State{Duration: duration}
}

func (s *State) clamp(t int) int {
	if t < 0 {
		return 0
	}
	if t > s.Duration {
		return s.Duration
	}
	return t
}

// Play starts playback; at the end it is a no-op.
func (s *State) Play() {
	if s.CurrentTime >= s.Duration {
		return
	}
	s.IsPlaying = true
}

func (s *State) Pause() {
	s.IsPlaying = false
}

func (s *State) Toggle() {
	if s.IsPlaying {
		s.Pause()
		return
	}
	s.Play()
}

func (s *State) Seek(t int) {
	s.CurrentTime = s.clamp(t)
}

func (s *State) Rewind(step int) {
	s.Seek(s.CurrentTime - step)
}

func (s *State) Forward(step int) {
	s.Seek(s.CurrentTime + step)
}

// Tick advances one second while playing and stops at the end.
// It reports whether playback is still running.
func (s *State) Tick() bool {
	if !s.IsPlaying {
		return false
	}
	if s.CurrentTime < s.Duration {
		s.CurrentTime++
	}
	if s.CurrentTime >= s.Duration {
		s.IsPlaying = false
	}
	return s.IsPlaying
}

func (s *State) Reset() {
	s.CurrentTime = 0
	s.IsPlaying = false
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Range renders "current - duration" as used on saved clips.
func (s State) Range() string {
	return FormatClock(s.CurrentTime) + " - " + FormatClock(s.Duration)
}
