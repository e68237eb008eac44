package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/compound-health-monitor/internal/application/alert"
	"github.com/compound-health-monitor/internal/domain"
)

// NotifyHandler exposes the delivery provider directly: health probe, ad-hoc
// sends, and a canned test send.
type NotifyHandler struct {
	svc alert.Service
}

func NewNotifyHandler(svc alert.Service) *NotifyHandler {
	return &NotifyHandler{svc: svc}
}

func (h *NotifyHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "UP",
		"timestamp": nowRFC3339(),
		"service":   "notification",
	})
}

func (h *NotifyHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.send(w, r, req)
}

// SendTest fires a fixed payload through the real provider chain.
func (h *NotifyHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, domain.SendRequest{
		Type: "alert",
		To:   domain.Recipient{Number: "+15005550006"},
		Parameters: map[string]string{
			"message": "test notification from compound-health-monitor",
		},
	})
}

func (h *NotifyHandler) send(w http.ResponseWriter, r *http.Request, req domain.SendRequest) {
	data, err := h.svc.Send(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrBadRequest) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, SendEnvelope{Error: err.Error(), Timestamp: nowRFC3339()})
		return
	}
	writeJSON(w, http.StatusOK, SendEnvelope{Success: true, Data: data, Timestamp: nowRFC3339()})
}
