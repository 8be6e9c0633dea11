package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/technosupport/ts-console/internal/styles"
)

// maxStyleSource bounds a POST /api/styles body.
const maxStyleSource = 1 << 20

type StylesHandler struct {
	Styles *styles.Manager
}

type styleStatus struct {
	Status styles.Status `json:"status"`
	Error  string        `json:"error,omitempty"`
	Path   string        `json:"path"`
}

func (h *StylesHandler) status() styleStatus {
	st, err := h.Styles.Status()
	out := styleStatus{Status: st, Path: h.Styles.Path()}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// Save POST /api/styles
// Accepts {"content": "..."} JSON or the raw source as the body.
func (h *StylesHandler) Save(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxStyleSource+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if len(body) > maxStyleSource {
		respondError(w, http.StatusRequestEntityTooLarge, "style source too large")
		return
	}

	source := string(body)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		source = req.Content
	}

	if err := h.Styles.Save(source); err != nil {
		respondJSON(w, errorStatus(err), h.status())
		return
	}
	respondJSON(w, http.StatusOK, h.status())
}

// Status GET /api/styles
func (h *StylesHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status())
}
