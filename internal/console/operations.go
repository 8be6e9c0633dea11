package console

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/technosupport/ts-console/internal/broadcast"
	"github.com/technosupport/ts-console/internal/chat"
	"github.com/technosupport/ts-console/internal/clips"
	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/keys"
	"github.com/technosupport/ts-console/internal/metrics"
	"github.com/technosupport/ts-console/internal/popup"
	"github.com/technosupport/ts-console/internal/reply"
	"github.com/technosupport/ts-console/internal/tracking"
)

var ErrBroadcastDisabled = errors.New("broadcast is not configured")

// Exchange is one operator message and the assistant's answer.
type Exchange struct {
	User      chat.Message `json:"user"`
	Assistant chat.Message `json:"assistant"`
	Intent    reply.Intent `json:"intent"`
}

func (m *Manager) incident(ctx context.Context, id string) (*incidents.Incident, error) {
	if id == "" {
		return nil, nil
	}
	return m.incidents.Get(ctx, id)
}

func (m *Manager) SelectIncident(ctx context.Context, id, incidentID string) (*Session, error) {
	in, err := m.incidents.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	return m.update(ctx, id, func(s *Session) error {
		s.SelectIncident(in, m.now())
		return nil
	})
}

func (m *Manager) SendMessage(ctx context.Context, id, text string) (*Exchange, error) {
	var ex Exchange
	_, err := m.update(ctx, id, func(s *Session) error {
		in, err := m.incident(ctx, s.IncidentID)
		if err != nil {
			return err
		}
		user, assistant, r, err := s.SendMessage(in, text, m.now())
		if err != nil {
			return err
		}
		ex = Exchange{User: user, Assistant: assistant, Intent: r.Intent}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RepliesTotal.WithLabelValues(string(ex.Intent)).Inc()
	return &ex, nil
}

func (m *Manager) HandleKey(ctx context.Context, id string, ev keys.Event) (KeyResult, *Session, error) {
	var res KeyResult
	s, err := m.update(ctx, id, func(s *Session) error {
		var err error
		res, err = s.HandleKey(m.script, ev)
		if err != nil {
			return err
		}
		if res.Ignored {
			return errSkip
		}
		return nil
	})
	if res.Command.Action == keys.ActionScenario {
		result := "ignored"
		if res.Step != nil {
			result = string(res.Step.To)
		}
		metrics.ScenarioTransitionsTotal.WithLabelValues(res.Command.Trigger, result).Inc()
	}
	if errors.Is(err, errSkip) {
		s, err = m.Get(ctx, id)
		return res, s, err
	}
	if err != nil {
		return res, nil, err
	}
	switch {
	case res.Command.Action == keys.ActionOpenPopup:
		metrics.PopupsOpenedTotal.WithLabelValues(string(res.Command.Popup)).Inc()
	case res.Step != nil && res.Step.Patch.OpenPopup != "":
		metrics.PopupsOpenedTotal.WithLabelValues(string(res.Step.Patch.OpenPopup)).Inc()
	}
	return res, s, nil
}

func (m *Manager) OpenPopup(ctx context.Context, id string, k popup.Kind, selection string) (*Session, error) {
	s, err := m.update(ctx, id, func(s *Session) error {
		return s.OpenPopup(k, selection)
	})
	if err == nil {
		metrics.PopupsOpenedTotal.WithLabelValues(string(k)).Inc()
	}
	return s, err
}

func (m *Manager) ClosePopup(ctx context.Context, id string, k popup.Kind) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		_, err := s.ClosePopup(k)
		return err
	})
}

func (m *Manager) AddMonitoring(ctx context.Context, id, key string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		s.AddMonitoring(key)
		return nil
	})
}

func (m *Manager) RemoveMonitoring(ctx context.Context, id, key string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		s.RemoveMonitoring(key)
		return nil
	})
}

// Playback applies a playback control; the background clock follows.
func (m *Manager) Playback(ctx context.Context, id string, action PlaybackAction, value int) (*Session, error) {
	if (action == PlaybackRewind || action == PlaybackForward) && value <= 0 {
		value = m.opts.PlaybackStep
	}
	return m.update(ctx, id, func(s *Session) error {
		return s.ControlPlayback(action, value)
	})
}

// SaveClip bookmarks the camera shown in the open CCTV popup.
func (m *Manager) SaveClip(ctx context.Context, id string) (clips.SavedClip, error) {
	var saved clips.SavedClip
	_, err := m.update(ctx, id, func(s *Session) error {
		camID, err := s.SelectedCamera()
		if err != nil {
			return err
		}
		cam, err := m.cameras.Camera(camID)
		if err != nil {
			return err
		}
		saved = s.SaveClip(cam, m.cameras.Thumbnail(cam.ID), m.now())
		return nil
	})
	if err != nil {
		return clips.SavedClip{}, err
	}
	metrics.ClipsSavedTotal.Inc()
	return saved, nil
}

func (m *Manager) RemoveClip(ctx context.Context, id, clipID string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		_, err := s.Clips.Remove(clipID)
		return err
	})
}

func (m *Manager) MarkClipReady(ctx context.Context, id, clipID string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		return s.Clips.MarkReady(clipID)
	})
}

func (m *Manager) MoveClipToDraft(ctx context.Context, id, clipID string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		_, err := s.MoveClipToDraft(clipID)
		return err
	})
}

// ComposeDraft fills the draft text from the selected incident. text, when
// non-empty, replaces the generated text.
func (m *Manager) ComposeDraft(ctx context.Context, id, text string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		if text != "" {
			s.Draft.Text = text
			return nil
		}
		in, err := m.incident(ctx, s.IncidentID)
		if err != nil {
			return err
		}
		s.Draft.Compose(in)
		return nil
	})
}

// SendBroadcast publishes the draft. The draft survives a failed send.
func (m *Manager) SendBroadcast(ctx context.Context, id string) (*broadcast.Bulletin, error) {
	if m.broadcaster == nil {
		return nil, ErrBroadcastDisabled
	}
	var b *broadcast.Bulletin
	_, err := m.update(ctx, id, func(s *Session) error {
		if s.Draft.IncidentID == "" {
			s.Draft.IncidentID = s.IncidentID
		}
		var err error
		b, err = m.broadcaster.Send(ctx, &s.Draft, s.Operator)
		return err
	})
	if err != nil {
		metrics.BroadcastsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.BroadcastsTotal.WithLabelValues("sent").Inc()
	log.Ctx(ctx).Info().Str("session_id", id).Str("bulletin_id", b.ID).Str("incident_id", b.IncidentID).Msg("bulletin sent")
	return b, nil
}

func (m *Manager) BeginReselect(ctx context.Context, id string, k popup.Kind) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		return s.BeginReselect(k)
	})
}

func (m *Manager) DragReselect(ctx context.Context, id string, clientX, clientY float64, frame tracking.Rect) (tracking.Box, error) {
	var box tracking.Box
	_, err := m.update(ctx, id, func(s *Session) error {
		var err error
		box, err = s.DragReselect(clientX, clientY, frame)
		return err
	})
	return box, err
}

// FinishReselect drops the box and starts a tracking run in the background.
func (m *Manager) FinishReselect(ctx context.Context, id string) (*Session, error) {
	s, err := m.update(ctx, id, func(s *Session) error {
		_, err := s.FinishReselect()
		return err
	})
	if err != nil {
		return nil, err
	}
	go m.runTracking(id)
	return s, nil
}

// SendToAgent hands the notification to the tracking agent and starts the
// re-tracking run in the background.
func (m *Manager) SendToAgent(ctx context.Context, id string) (*Session, error) {
	s, err := m.update(ctx, id, func(s *Session) error {
		return s.SendToAgent()
	})
	if err != nil {
		return nil, err
	}
	go m.runTracking(id)
	return s, nil
}
