package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-console/internal/metrics"
	"github.com/technosupport/ts-console/internal/middleware"
	"github.com/technosupport/ts-console/internal/prefs"
)

// OriginHeader identifies the console tab behind a preference write.
const OriginHeader = "X-Console-Origin"

type PrefsHandler struct {
	Prefs *prefs.Service
}

// Get GET /api/v1/prefs?hydrate=false
// hydrate defaults to true; false returns the all-off defaults.
func (h *PrefsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	hydrate := true
	if v := r.URL.Query().Get("hydrate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "hydrate must be a boolean")
			return
		}
		hydrate = b
	}
	o, err := h.Prefs.Load(r.Context(), ac.OperatorID, hydrate)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Toggle PUT /api/v1/prefs/{key}
func (h *PrefsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Value  bool   `json:"value"`
		Origin string `json:"origin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Origin == "" {
		req.Origin = r.Header.Get(OriginHeader)
	}

	key := chi.URLParam(r, "key")
	o, err := h.Prefs.Toggle(r.Context(), ac.OperatorID, key, req.Value, req.Origin)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	metrics.PrefChangesTotal.WithLabelValues(key).Inc()
	respondJSON(w, http.StatusOK, o)
}
