package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/technosupport/ts-console/internal/auth"
	"github.com/technosupport/ts-console/internal/middleware"
)

type AuthHandler struct {
	Auth *auth.Service
}

type LoginRequest struct {
	OperatorID string `json:"operator_id"`
	Password   string `json:"password"`
	Station    string `json:"station"`
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.OperatorID == "" || req.Password == "" || req.Station == "" {
		respondError(w, http.StatusBadRequest, "operator_id, password and station are required")
		return
	}

	sess, err := h.Auth.Login(r.Context(), req.OperatorID, req.Password, req.Station)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		log.Ctx(r.Context()).Info().Str("operator_id", req.OperatorID).Str("station", req.Station).Msg("login rejected")
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// Logout POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.Auth.Logout(r.Context(), claims); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
