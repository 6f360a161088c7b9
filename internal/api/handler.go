// Package api exposes the turn pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sarthi-rx/server/internal/agent/model"
	errx "github.com/sarthi-rx/server/internal/core/error"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// TurnService is the orchestrator surface the handlers use.
type TurnService interface {
	ProcessTurn(ctx context.Context, in model.TurnInput) (*model.TurnResult, error)
	AttachPrescription(ctx context.Context, userID, sessionID, patientID string, items []string) (model.BatchResult, error)
	ClearSession(ctx context.Context, key model.SessionKey) error
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides common handler utilities.
type Handler struct {
	turns  TurnService
	checks map[string]Pinger
}

// NewHandler creates a Handler. checks are probed by the readiness endpoint.
func NewHandler(turns TurnService, checks map[string]Pinger) *Handler {
	if checks == nil {
		checks = map[string]Pinger{}
	}
	return &Handler{turns: turns, checks: checks}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeErr maps err to a status and a safe message. Internal details are
// logged, never returned.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := errx.StatusOf(err)
	msg := errx.SystemErrorMessage
	body := map[string]string{}

	var app *errx.AppError
	if errors.As(err, &app) {
		msg = app.Message
		if app.Reason != "" {
			body["reason"] = app.Reason
		}
	}
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	body["error"] = msg
	JSON(w, status, body)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
