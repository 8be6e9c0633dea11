// Package console holds the per-operator console session: the view-model
// behind the incident detail page and everything the page mutates.
package console

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/technosupport/ts-console/internal/broadcast"
	"github.com/technosupport/ts-console/internal/chat"
	"github.com/technosupport/ts-console/internal/clips"
	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/monitoring"
	"github.com/technosupport/ts-console/internal/playback"
	"github.com/technosupport/ts-console/internal/popup"
	"github.com/technosupport/ts-console/internal/ptz"
	"github.com/technosupport/ts-console/internal/reply"
	"github.com/technosupport/ts-console/internal/scenario"
	"github.com/technosupport/ts-console/internal/tracking"
)

var (
	ErrSessionNotFound   = errors.New("console session not found")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrPopupNotOpen      = errors.New("popup is not open")
	ErrNoCamera          = errors.New("no camera selected")
	ErrNotVideoPopup     = errors.New("popup has no video")
	ErrUnknownPlayback   = errors.New("unknown playback action")
	ErrTrackingBusy      = errors.New("tracking already in progress")
	ErrTrackingNotActive = errors.New("tracking not running")
)

// DefaultClipDuration is the simulated length of every CCTV feed (5:32).
const DefaultClipDuration = 332

// DefaultPin is where the tracking pin sits before the first jitter.
var DefaultPin = tracking.Pin{X: 50, Y: 50}

// TrackingState follows one re-tracking run from request to overlay hide.
type TrackingState struct {
	Pending        bool         `json:"pending"`
	Running        bool         `json:"running"`
	Progress       float64      `json:"progress"`
	Pin            tracking.Pin `json:"pin"`
	OverlayVisible bool         `json:"overlay_visible"`
	ReselectPopup  popup.Kind   `json:"reselect_popup,omitempty"`
}

type Session struct {
	ID        string    `json:"id"`
	Operator  string    `json:"operator"`
	Station   string    `json:"station"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	IncidentID string            `json:"incident_id,omitempty"`
	Transcript chat.Transcript   `json:"transcript"`
	Popups     popup.Coordinator `json:"popups"`
	Scenario   scenario.Progress `json:"scenario"`
	Clips      clips.List        `json:"clips"`
	Draft      broadcast.Draft   `json:"draft"`
	Monitoring monitoring.List   `json:"monitoring"`
	Playback   playback.State    `json:"playback"`
	PTZ        ptz.Controller    `json:"ptz"`
	Reselect   tracking.Reselect `json:"reselect"`
	Tracking   TrackingState     `json:"tracking"`
}

func NewSession(id, operator, station string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Operator:  operator,
		Station:   station,
		CreatedAt: now,
		UpdatedAt: now,
		Popups:    *popup.NewCoordinator(),
		Scenario:  scenario.NewProgress(),
		PTZ:       *ptz.New(),
		Tracking:  TrackingState{Pin: DefaultPin},
	}
}

func isVideoPopup(k popup.Kind) bool {
	return k == popup.KindCCTV || k == popup.KindCombined || k == popup.KindDetectedClip
}

// SelectIncident switches the page to in. Page-local state is reset as on a
// fresh page load; the transcript, clips, draft and monitoring list survive.
func (s *Session) SelectIncident(in *incidents.Incident, now time.Time) chat.Message {
	s.IncidentID = in.ID
	s.Popups = *popup.NewCoordinator()
	s.Scenario.Reset()
	s.Playback = playback.State{}
	s.PTZ.Reset()
	s.Reselect = tracking.Reselect{}
	s.Tracking = TrackingState{Pin: DefaultPin}

	r := reply.InitialInsight(in)
	return s.Transcript.Add(chat.RoleAssistant, r.Text, now, chat.FromReply(r))
}

// SendMessage appends the operator's text and the generated reply. in may be
// nil, which yields the select-an-incident reply.
func (s *Session) SendMessage(in *incidents.Incident, text string, now time.Time) (user, assistant chat.Message, r reply.Reply, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.Message{}, chat.Message{}, reply.Reply{}, ErrEmptyMessage
	}
	user = s.Transcript.Add(chat.RoleUser, text, now)
	r = reply.Generate(in, text)
	assistant = s.Transcript.Add(chat.RoleAssistant, r.Text, now, chat.FromReply(r))
	return user, assistant, r, nil
}

// OpenPopup shows k. Video popups start their feed from 0 and a CCTV popup
// recentres the camera.
func (s *Session) OpenPopup(k popup.Kind, selection string) error {
	if err := s.Popups.Open(k, selection); err != nil {
		return err
	}
	if isVideoPopup(k) {
		s.Playback = playback.New(DefaultClipDuration)
	}
	if k == popup.KindCCTV {
		s.PTZ.Reset()
	}
	return nil
}

// ClosePopup hides k, clears its selection and rewinds playback to 0.
func (s *Session) ClosePopup(k popup.Kind) (bool, error) {
	wasOpen, err := s.Popups.Close(k)
	if err != nil {
		return false, err
	}
	s.Playback.Reset()
	if s.Reselect.Dragging && s.Tracking.ReselectPopup == k {
		s.Reselect = tracking.Reselect{}
		s.Tracking.ReselectPopup = ""
	}
	return wasOpen, nil
}

func (s *Session) AddMonitoring(key string) bool    { return s.Monitoring.Add(key) }
func (s *Session) RemoveMonitoring(key string) bool { return s.Monitoring.Remove(key) }

type PlaybackAction string

const (
	PlaybackPlay    PlaybackAction = "play"
	PlaybackPause   PlaybackAction = "pause"
	PlaybackToggle  PlaybackAction = "toggle"
	PlaybackSeek    PlaybackAction = "seek"
	PlaybackRewind  PlaybackAction = "rewind"
	PlaybackForward PlaybackAction = "forward"
	PlaybackReset   PlaybackAction = "reset"
)

// ControlPlayback applies a playback button. value is the absolute position
// for seek and the step for rewind/forward (default 10).
func (s *Session) ControlPlayback(action PlaybackAction, value int) error {
	step := value
	if step <= 0 {
		step = playback.DefaultStep
	}
	switch action {
	case PlaybackPlay:
		s.Playback.Play()
	case PlaybackPause:
		s.Playback.Pause()
	case PlaybackToggle:
		s.Playback.Toggle()
	case PlaybackSeek:
		s.Playback.Seek(value)
	case PlaybackRewind:
		s.Playback.Rewind(step)
	case PlaybackForward:
		s.Playback.Forward(step)
	case PlaybackReset:
		s.Playback.Reset()
	default:
		return ErrUnknownPlayback
	}
	return nil
}

// SelectedCamera is the camera shown in the open CCTV (or combined) popup.
func (s *Session) SelectedCamera() (string, error) {
	for _, k := range []popup.Kind{popup.KindCCTV, popup.KindCombined} {
		if s.Popups.IsOpen(k) && s.Popups.Selection(k) != "" {
			return s.Popups.Selection(k), nil
		}
	}
	return "", ErrNoCamera
}

// SaveClip bookmarks the current playback position of cam.
func (s *Session) SaveClip(cam *incidents.Camera, thumbnail string, now time.Time) clips.SavedClip {
	return s.Clips.Save(clips.Source{CCTVID: cam.ID, CCTVName: cam.Name, Thumbnail: thumbnail}, s.Playback, now)
}

// MoveClipToDraft transfers a saved clip into the broadcast draft.
func (s *Session) MoveClipToDraft(id string) (clips.SavedClip, error) {
	c, err := s.Clips.MoveTo(id, &s.Draft.Clips)
	if err != nil {
		return clips.SavedClip{}, err
	}
	if s.Draft.IncidentID == "" {
		s.Draft.IncidentID = s.IncidentID
	}
	return c, nil
}

// BeginReselect enters drag mode on the tracking box of video popup k.
func (s *Session) BeginReselect(k popup.Kind) error {
	if !isVideoPopup(k) {
		return ErrNotVideoPopup
	}
	if !s.Popups.IsOpen(k) {
		return ErrPopupNotOpen
	}
	if err := s.Reselect.Begin(); err != nil {
		return err
	}
	s.Tracking.ReselectPopup = k
	return nil
}

func (s *Session) DragReselect(clientX, clientY float64, frame tracking.Rect) (tracking.Box, error) {
	return s.Reselect.Drag(clientX, clientY, frame)
}

// FinishReselect leaves drag mode, closes the popup and queues a tracking run.
func (s *Session) FinishReselect() (tracking.Box, error) {
	box, err := s.Reselect.Finish()
	if err != nil {
		return tracking.Box{}, err
	}
	if k := s.Tracking.ReselectPopup; k != "" {
		s.ClosePopup(k)
	}
	s.Tracking.ReselectPopup = ""
	return box, s.queueTracking()
}

// SendToAgent is the notification popup's action: it closes the popup and
// queues the re-tracking run that completes the scenario.
func (s *Session) SendToAgent() error {
	if !s.Popups.IsOpen(popup.KindNotification) {
		return ErrPopupNotOpen
	}
	s.ClosePopup(popup.KindNotification)
	s.Scenario.RequestRetrack()
	return s.queueTracking()
}

func (s *Session) queueTracking() error {
	if s.Tracking.Running || s.Tracking.Pending {
		return ErrTrackingBusy
	}
	s.Tracking.Pending = true
	s.Tracking.Progress = 0
	return nil
}

// StartTracking moves a queued run to running. False when nothing is queued.
func (s *Session) StartTracking() bool {
	if !s.Tracking.Pending {
		return false
	}
	s.Tracking.Pending = false
	s.Tracking.Running = true
	s.Tracking.Progress = 0
	return true
}

// CompleteTracking jitters and reveals the pin, shows the overlay and applies
// the scenario's retrack patch if one was requested.
func (s *Session) CompleteTracking(script *scenario.Script, rng *rand.Rand) error {
	if !s.Tracking.Running {
		return ErrTrackingNotActive
	}
	s.Tracking.Running = false
	s.Tracking.Progress = 100
	s.Tracking.Pin = tracking.Jitter(s.Tracking.Pin, rng)
	s.Tracking.Pin.Visible = true
	s.Tracking.OverlayVisible = true

	if s.Scenario.Flags.RetrackPending {
		return script.CompleteRetrack(&s.Scenario)
	}
	return nil
}

// AbortTracking clears a running tracking run without revealing anything.
func (s *Session) AbortTracking() {
	s.Tracking.Running = false
	s.Tracking.Pending = false
}
