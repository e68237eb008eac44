package handler

import (
	"encoding/json"
	"net/http"

	"github.com/compound-health-monitor/internal/application/settings"
	"github.com/compound-health-monitor/internal/domain"
	"github.com/go-chi/chi/v5"
)

// SettingsHandler handles settings registration and notification history.
type SettingsHandler struct {
	svc settings.Service
}

func NewSettingsHandler(svc settings.Service) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.svc.Save(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	// Empty 200, nothing useful to echo back.
	w.WriteHeader(http.StatusOK)
}

func (h *SettingsHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.History(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
