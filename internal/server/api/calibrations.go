package api

import (
	"log/slog"
	"net/http"

	"github.com/ayusman/repcoach/internal/store"
)

// CalibrationHandler serves calibrations saved per user profile.
type CalibrationHandler struct {
	store *store.Store
	log   *slog.Logger
}

// NewCalibrationHandler creates a CalibrationHandler backed by s.
func NewCalibrationHandler(s *store.Store, log *slog.Logger) *CalibrationHandler {
	return &CalibrationHandler{store: s, log: log}
}

// Register adds the calibration routes to mux.
func (h *CalibrationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/profiles/{profile}/calibration", h.get)
	mux.HandleFunc("DELETE /api/profiles/{profile}/calibration", h.delete)
}

// get handles GET /api/profiles/{profile}/calibration.
func (h *CalibrationHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Calibrations().Get(r.PathValue("profile"))
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// delete handles DELETE /api/profiles/{profile}/calibration.
func (h *CalibrationHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Calibrations().Delete(r.PathValue("profile")); err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
