package console

import (
	"errors"

	"github.com/technosupport/ts-console/internal/keys"
	"github.com/technosupport/ts-console/internal/ptz"
	"github.com/technosupport/ts-console/internal/scenario"
)

// KeyResult reports what a key press did. Ignored presses are not errors.
type KeyResult struct {
	Command keys.Command   `json:"command"`
	Step    *scenario.Step `json:"step,omitempty"`
	Ignored bool           `json:"ignored"`
}

// HandleKey dispatches a keyboard event against the current popup state.
func (s *Session) HandleKey(script *scenario.Script, ev keys.Event) (KeyResult, error) {
	active, _ := s.Popups.Active()
	cmd := keys.Resolve(ev, active)
	res := KeyResult{Command: cmd}

	switch cmd.Action {
	case keys.ActionNone:
		res.Ignored = true

	case keys.ActionScenario:
		guard := scenario.Guard{AnyPopupOpen: s.Popups.AnyOpen(), InTextField: ev.InTextField}
		st, err := script.Apply(&s.Scenario, cmd.Trigger, guard)
		if errors.Is(err, scenario.ErrNoTransition) || errors.Is(err, scenario.ErrGuarded) {
			res.Ignored = true
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res.Step = &st
		if k := st.Patch.OpenPopup; k != "" {
			if err := s.OpenPopup(k, s.IncidentID); err != nil {
				return res, err
			}
		}

	case keys.ActionOpenPopup:
		return res, s.OpenPopup(cmd.Popup, "")

	case keys.ActionClosePopup:
		_, err := s.ClosePopup(cmd.Popup)
		return res, err

	case keys.ActionPTZMove:
		_, err := s.PTZ.Move(cmd.Direction)
		return res, err

	case keys.ActionPTZZoom:
		s.PTZ.Zoom(cmd.Zoom)

	case keys.ActionPTZPreset:
		if _, err := s.PTZ.GotoPreset(cmd.Preset); err != nil {
			if errors.Is(err, ptz.ErrPresetNotSet) {
				res.Ignored = true
				return res, nil
			}
			return res, err
		}

	case keys.ActionTogglePlay:
		s.Playback.Toggle()

	case keys.ActionSeek:
		s.Playback.Seek(s.Playback.CurrentTime + cmd.Seek)
	}
	return res, nil
}
