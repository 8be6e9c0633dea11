package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-console/internal/console"
	"github.com/technosupport/ts-console/internal/keys"
	"github.com/technosupport/ts-console/internal/middleware"
	"github.com/technosupport/ts-console/internal/popup"
	"github.com/technosupport/ts-console/internal/tracking"
)

type SessionHandler struct {
	Sessions *console.Manager
}

// owner rejects access to sessions of other operators. The session is
// reported missing rather than forbidden.
func (h *SessionHandler) owner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := middleware.GetAuthContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		s, err := h.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if s.Operator != ac.OperatorID {
			respondErr(w, r, console.ErrSessionNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionID(r *http.Request) string { return chi.URLParam(r, "id") }

// decodeOptional decodes a JSON body, treating an empty body as zero values.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *SessionHandler) respondSession(w http.ResponseWriter, r *http.Request, status int, s *console.Session, err error) {
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, status, s)
}

// Create POST /api/v1/sessions
// The incident to pre-select comes from {"event_id"} or ?eventId=.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		EventID string `json:"event_id"`
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.EventID == "" {
		req.EventID = r.URL.Query().Get("eventId")
	}

	s, err := h.Sessions.Create(r.Context(), ac.OperatorID, ac.Station, req.EventID)
	h.respondSession(w, r, http.StatusCreated, s, err)
}

// Get GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Get(r.Context(), sessionID(r))
	h.respondSession(w, r, http.StatusOK, s, err)
}

// Delete DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Delete(r.Context(), sessionID(r)); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectIncident PUT /api/v1/sessions/{id}/incident
func (h *SessionHandler) SelectIncident(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IncidentID string `json:"incident_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IncidentID == "" {
		respondError(w, http.StatusBadRequest, "incident_id is required")
		return
	}
	s, err := h.Sessions.SelectIncident(r.Context(), sessionID(r), req.IncidentID)
	h.respondSession(w, r, http.StatusOK, s, err)
}

// SendMessage POST /api/v1/sessions/{id}/messages
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	ex, err := h.Sessions.SendMessage(r.Context(), sessionID(r), req.Text)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ex)
}

type keyResponse struct {
	Result  console.KeyResult `json:"result"`
	Session *console.Session  `json:"session"`
}

// HandleKey POST /api/v1/sessions/{id}/keys
func (h *SessionHandler) HandleKey(w http.ResponseWriter, r *http.Request) {
	var ev keys.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil || ev.Key == "" {
		respondError(w, http.StatusBadRequest, "key is required")
		return
	}
	res, s, err := h.Sessions.HandleKey(r.Context(), sessionID(r), ev)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, keyResponse{Result: res, Session: s})
}

// OpenPopup POST /api/v1/sessions/{id}/popups/{kind}
func (h *SessionHandler) OpenPopup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selection string `json:"selection"`
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	k := popup.Kind(chi.URLParam(r, "kind"))
	s, err := h.Sessions.OpenPopup(r.Context(), sessionID(r), k, req.Selection)
	h.respondSession(w, r, http.StatusOK, s, err)
}

// ClosePopup DELETE /api/v1/sessions/{id}/popups/{kind}
func (h *SessionHandler) ClosePopup(w http.ResponseWriter, r *http.Request) {
	k := popup.Kind(chi.URLParam(r, "kind"))
	s, err := h.Sessions.ClosePopup(r.Context(), sessionID(r), k)
	h.respondSession(w, r, http.StatusOK, s, err)
}

// AddMonitoring POST /api/v1/sessions/{id}/monitoring
func (h *SessionHandler) AddMonitoring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		respondError(w, http.StatusBadRequest, "key is required")
		return
	}
	s, err := h.Sessions.AddMonitoring(r.Context(), sessionID(r), req.Key)
	h.respondSession(w, r, http.StatusOK, s, err)
}

// RemoveMonitoring DELETE /api/v1/sessions/{id}/monitoring/{key}
func (h *SessionHandler) RemoveMonitoring(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.RemoveMonitoring(r.Context(), sessionID(r), chi.URLParam(r, "key"))
	h.respondSession(w, r, http.StatusOK, s, err)
}

// Playback POST /api/v1/sessions/{id}/playback
func (h *SessionHandler) Playback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action console.PlaybackAction `json:"action"`
		Value  int                    `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s, err := h.Sessions.Playback(r.Context(), sessionID(r), req.Action, req.Value)
	h.respondSession(w, r, http.StatusOK, s, err)
}

// SaveClip POST /api/v1/sessions/{id}/clips
func (h *SessionHandler) SaveClip(w http.ResponseWriter, r *http.Request) {
	c, err := h.Sessions.SaveClip(r.Context(), sessionID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// RemoveClip DELETE /api/v1/sessions/{id}/clips/{clipID}
func (h *SessionHandler) RemoveClip(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.RemoveClip(r.Context(), sessionID(r), chi.URLParam(r, "clipID"))
	h.respondSession(w, r, http.StatusOK, s, err)
}

// MarkClipReady POST /api/v1/sessions/{id}/clips/{clipID}/ready
func (h *SessionHandler) MarkClipReady(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.MarkClipReady(r.Context(), sessionID(r), chi.URLParam(r, "clipID"))
	h.respondSession(w, r, http.StatusOK, s, err)
}

// MoveClipToDraft POST /api/v1/sessions/{id}/clips/{clipID}/draft
func (h *SessionHandler) MoveClipToDraft(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.MoveClipToDraft(r.Context(), sessionID(r), chi.URLParam(r, "clipID"))
	h.respondSession(w, r, http.StatusOK, s, err)
}

// ComposeDraft PUT /api/v1/sessions/{id}/draft
// An empty body regenerates the text from the bulletin template.
func (h *SessionHandler) ComposeDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s, err := h.Sessions.ComposeDraft(r.Context(), sessionID(r), req.Text)
	h.respondSession(w, r, http.StatusOK, s, err)
}

// SendBroadcast POST /api/v1/sessions/{id}/draft/send
func (h *SessionHandler) SendBroadcast(w http.ResponseWriter, r *http.Request) {
	b, err := h.Sessions.SendBroadcast(r.Context(), sessionID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

// BeginReselect POST /api/v1/sessions/{id}/tracking/reselect
func (h *SessionHandler) BeginReselect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Popup popup.Kind `json:"popup"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s, err := h.Sessions.BeginReselect(r.Context(), sessionID(r), req.Popup)
	h.respondSession(w, r, http.StatusOK, s, err)
}

// DragReselect POST /api/v1/sessions/{id}/tracking/reselect/drag
func (h *SessionHandler) DragReselect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientX float64       `json:"client_x"`
		ClientY float64       `json:"client_y"`
		Frame   tracking.Rect `json:"frame"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	box, err := h.Sessions.DragReselect(r.Context(), sessionID(r), req.ClientX, req.ClientY, req.Frame)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, box)
}

// FinishReselect POST /api/v1/sessions/{id}/tracking/reselect/finish
func (h *SessionHandler) FinishReselect(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.FinishReselect(r.Context(), sessionID(r))
	h.respondSession(w, r, http.StatusAccepted, s, err)
}

// SendToAgent POST /api/v1/sessions/{id}/tracking/agent
func (h *SessionHandler) SendToAgent(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.SendToAgent(r.Context(), sessionID(r))
	h.respondSession(w, r, http.StatusAccepted, s, err)
}
