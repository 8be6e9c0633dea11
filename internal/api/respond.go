package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/technosupport/ts-console/internal/auth"
	"github.com/technosupport/ts-console/internal/broadcast"
	"github.com/technosupport/ts-console/internal/clips"
	"github.com/technosupport/ts-console/internal/console"
	"github.com/technosupport/ts-console/internal/data"
	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/popup"
	"github.com/technosupport/ts-console/internal/prefs"
	"github.com/technosupport/ts-console/internal/styles"
	"github.com/technosupport/ts-console/internal/tracking"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, console.ErrSessionNotFound),
		errors.Is(err, incidents.ErrIncidentNotFound),
		errors.Is(err, incidents.ErrCameraNotFound),
		errors.Is(err, clips.ErrClipNotFound),
		errors.Is(err, data.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, console.ErrEmptyMessage),
		errors.Is(err, console.ErrUnknownPlayback),
		errors.Is(err, console.ErrNotVideoPopup),
		errors.Is(err, popup.ErrUnknownPopup),
		errors.Is(err, prefs.ErrUnknownKey),
		errors.Is(err, prefs.ErrInvalidValue),
		errors.Is(err, tracking.ErrEmptyFrame),
		errors.Is(err, broadcast.ErrEmptyDraft),
		errors.Is(err, styles.ErrEmptySource):
		return http.StatusBadRequest
	case errors.Is(err, console.ErrPopupNotOpen),
		errors.Is(err, console.ErrNoCamera),
		errors.Is(err, console.ErrTrackingBusy),
		errors.Is(err, tracking.ErrNotReselecting),
		errors.Is(err, tracking.ErrAlreadyReselecting):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, console.ErrBroadcastDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, broadcast.ErrPublishFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes err with its mapped status. Internal errors are logged
// and reported without detail.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}
