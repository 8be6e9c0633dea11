package scenario

import (
	"errors"
	"slices"
)

var (
	ErrNoTransition  = errors.New("no scenario transition for trigger")
	ErrGuarded       = errors.New("scenario trigger ignored while a popup is open or a text field has focus")
	ErrNotRetracking = errors.New("scenario re-tracking not requested")
)

// Guard carries the conditions under which keyboard triggers are ignored.
type Guard struct {
	AnyPopupOpen bool
	InTextField  bool
}

func (g Guard) Blocked() bool { return g.AnyPopupOpen || g.InTextField }

// Flags is the map and timeline state driven by the script.
type Flags struct {
	Pins              map[string]bool `json:"pins"`
	TimelineFilters   []string        `json:"timeline_filters"`
	ShowDetectedClips bool            `json:"show_detected_clips"`
	VehicleAnalysis   bool            `json:"vehicle_analysis"`
	RetrackPending    bool            `json:"retrack_pending"`
}

func (f *Flags) apply(p Patch) {
	if f.Pins == nil {
		f.Pins = make(map[string]bool)
	}
	for _, pin := range p.HidePins {
		f.Pins[pin] = false
	}
	for _, pin := range p.ShowPins {
		f.Pins[pin] = true
	}
	for _, label := range p.AppendFilters {
		if !slices.Contains(f.TimelineFilters, label) {
			f.TimelineFilters = append(f.TimelineFilters, label)
		}
	}
	if p.ShowDetectedClips != nil {
		f.ShowDetectedClips = *p.ShowDetectedClips
	}
	if p.VehicleAnalysis != nil {
		f.VehicleAnalysis = *p.VehicleAnalysis
	}
}

// PinVisible reports whether the named pin is shown.
func (f Flags) PinVisible(name string) bool { return f.Pins[name] }

// Progress is the current position of a session in a script.
type Progress struct {
	State State `json:"state"`
	Flags Flags `json:"flags"`
}

func NewProgress() Progress {
	return Progress{State: StateInitial, Flags: Flags{Pins: map[string]bool{}}}
}

// Lookup finds the step for trigger out of from.
func (s *Script) Lookup(from State, trigger string) (Step, error) {
	for _, st := range s.Steps {
		if st.From == from && st.Trigger == trigger {
			return st, nil
		}
	}
	return Step{}, ErrNoTransition
}

// Apply advances p by trigger. The returned step tells the caller which popup,
// if any, to open.
func (s *Script) Apply(p *Progress, trigger string, g Guard) (Step, error) {
	if g.Blocked() {
		return Step{}, ErrGuarded
	}
	if p.State == "" {
		p.State = StateInitial
	}
	st, err := s.Lookup(p.State, trigger)
	if err != nil {
		return Step{}, err
	}
	p.State = st.To
	p.Flags.apply(st.Patch)
	return st, nil
}

// RequestRetrack marks the notification popup's "send to agent" action; the
// caller then runs the re-tracking progress and calls CompleteRetrack.
func (p *Progress) RequestRetrack() {
	p.Flags.RetrackPending = true
}

// CompleteRetrack applies the script's retrack patch.
func (s *Script) CompleteRetrack(p *Progress) error {
	if !p.Flags.RetrackPending {
		return ErrNotRetracking
	}
	p.Flags.RetrackPending = false
	p.Flags.apply(s.Retrack)
	return nil
}

// Reset returns p to the initial state with cleared flags.
func (p *Progress) Reset() {
	*p = NewProgress()
}
