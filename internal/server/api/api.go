// Package api provides the HTTP JSON handlers of the repcoach server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/calibration"
	"github.com/ayusman/repcoach/internal/keypose"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

// maxBodyBytes bounds request bodies. A workout of a few hundred keyposes fits.
const maxBodyBytes = 8 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// StatusFor maps engine and storage errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, pose.ErrInvalidPose),
		errors.Is(err, session.ErrInvalidParameter),
		errors.Is(err, keypose.ErrInvalidWorkout):
		return http.StatusBadRequest
	case errors.Is(err, calibration.ErrCalibrationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, app.ErrSessionNotFound),
		errors.Is(err, keypose.ErrPoseNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotCalibrated),
		errors.Is(err, session.ErrSegmentNotSelected),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure writes err with its mapped status. Internal errors are logged
// and hidden from the client.
func writeFailure(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
