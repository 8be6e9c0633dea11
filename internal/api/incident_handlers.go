package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-console/internal/incidents"
)

type IncidentHandler struct {
	Repo    incidents.Repository
	Catalog *incidents.Catalog
}

// List GET /api/v1/incidents?domain=C&status=URGENT&risk=HIGH
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := incidents.Filter{
		Domain: incidents.Domain(strings.ToUpper(q.Get("domain"))),
		Status: incidents.Status(strings.ToUpper(q.Get("status"))),
		Risk:   incidents.Risk(strings.ToUpper(q.Get("risk"))),
	}
	if f.Domain != "" && !f.Domain.Valid() {
		respondError(w, http.StatusBadRequest, "unknown domain")
		return
	}

	list, err := h.Repo.List(r.Context(), f)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if list == nil {
		list = []*incidents.Incident{}
	}
	respondJSON(w, http.StatusOK, list)
}

type incidentView struct {
	*incidents.Incident
	DomainLabel string `json:"domain_label"`
}

// Get GET /api/v1/incidents/{id}
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	in, err := h.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, incidentView{Incident: in, DomainLabel: incidents.DomainLabel(in.Domain)})
}

// Timeline GET /api/v1/incidents/{id}/timeline
func (h *IncidentHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Repo.Get(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	entries := h.Catalog.Timeline(id)
	if entries == nil {
		entries = []*incidents.TimelineEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// Cameras GET /api/v1/cameras
func (h *IncidentHandler) Cameras(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Catalog.Cameras())
}
