package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sarthi-rx/server/internal/agent/model"
)

type prescriptionRequest struct {
	UserID    string   `json:"user_id"`
	SessionID string   `json:"session_id"`
	PatientID string   `json:"patient_id,omitempty"`
	Items     []string `json:"items"`
}

// RegisterRoutes mounts the conversation endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/turns", h.postTurn)
		r.Post("/prescriptions", h.postPrescription)
		r.Delete("/sessions/{userID}/{sessionID}", h.deleteSession)
	})
	r.Get("/healthz", h.healthz)
}

func (h *Handler) postTurn(w http.ResponseWriter, r *http.Request) {
	var in model.TurnInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.turns.ProcessTurn(r.Context(), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

func (h *Handler) postPrescription(w http.ResponseWriter, r *http.Request) {
	var req prescriptionRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		Error(w, http.StatusBadRequest, "items must not be empty")
		return
	}
	batch, err := h.turns.AttachPrescription(r.Context(), req.UserID, req.SessionID, req.PatientID, req.Items)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if batch.Matched == nil {
		batch.Matched = []model.MatchResult{}
	}
	if batch.Unmatched == nil {
		batch.Unmatched = []string{}
	}
	JSON(w, http.StatusOK, batch)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	key := model.SessionKey{
		UserID:    chi.URLParam(r, "userID"),
		SessionID: chi.URLParam(r, "sessionID"),
	}
	if err := h.turns.ClearSession(r.Context(), key); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	JSON(w, status, map[string]any{"status": http.StatusText(status), "checks": checks})
}
