package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/calibration"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/segment"
)

// SessionHandler serves scoring sessions.
type SessionHandler struct {
	app *app.App
	log *slog.Logger
}

// NewSessionHandler creates a SessionHandler over a.
func NewSessionHandler(a *app.App, log *slog.Logger) *SessionHandler {
	return &SessionHandler{app: a, log: log}
}

// Register adds the session routes to mux.
func (h *SessionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("GET /api/sessions/{id}", h.get)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.delete)
	mux.HandleFunc("POST /api/sessions/{id}/reset", h.reset)
	mux.HandleFunc("POST /api/sessions/{id}/calibrate", h.calibrate)
	mux.HandleFunc("POST /api/sessions/{id}/workout", h.loadWorkout)
	mux.HandleFunc("GET /api/sessions/{id}/segment", h.getSegment)
	mux.HandleFunc("POST /api/sessions/{id}/segment", h.selectSegment)
	mux.HandleFunc("POST /api/sessions/{id}/analyze", h.analyze)
	mux.HandleFunc("POST /api/sessions/{id}/analyze/smart", h.analyzeSmart)
	mux.HandleFunc("GET /api/sessions/{id}/guide", h.guide)
}

type createSessionRequest struct {
	Profile string `json:"profile"`
}

type listSessionsResponse struct {
	Sessions []app.SessionInfo `json:"sessions"`
}

type poseRequest struct {
	Pose pose.Pose `json:"pose"`
}

type calibrateResponse struct {
	Calibration calibration.Calibration `json:"calibration"`
	Valid       bool                    `json:"valid"`
}

type loadWorkoutRequest struct {
	WorkoutID string `json:"workout_id"`
}

type segmentRequest struct {
	Start *int `json:"start"`
	End   *int `json:"end"`
}

type smartRequest struct {
	Pose         pose.Pose          `json:"pose"`
	Mode         *segment.ScaleMode `json:"mode"`
	ScreenWidth  float64            `json:"screen_width"`
	ScreenHeight float64            `json:"screen_height"`
}

type guideResponse struct {
	T    float64   `json:"t"`
	Pose pose.Pose `json:"pose"`
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: h.app.Sessions()})
}

// create handles POST /api/sessions. An empty body creates an anonymous session.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	info, err := h.app.CreateSession(req.Profile)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	info, err := h.app.Session(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteSession(r.PathValue("id")); err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reset handles POST /api/sessions/{id}/reset.
func (h *SessionHandler) reset(w http.ResponseWriter, r *http.Request) {
	info, err := h.app.ResetSession(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// calibrate handles POST /api/sessions/{id}/calibrate with a reference pose.
func (h *SessionHandler) calibrate(w http.ResponseWriter, r *http.Request) {
	var req poseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cal, err := h.app.Calibrate(r.PathValue("id"), req.Pose)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calibrateResponse{Calibration: cal, Valid: calibration.Validate(cal)})
}

// loadWorkout handles POST /api/sessions/{id}/workout.
func (h *SessionHandler) loadWorkout(w http.ResponseWriter, r *http.Request) {
	var req loadWorkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.WorkoutID == "" {
		writeError(w, http.StatusBadRequest, "workout_id is required")
		return
	}

	info, err := h.app.LoadWorkout(r.PathValue("id"), req.WorkoutID)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// selectSegment handles POST /api/sessions/{id}/segment with keypose indices.
func (h *SessionHandler) selectSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Start == nil || req.End == nil {
		writeError(w, http.StatusBadRequest, "start and end are required")
		return
	}

	info, err := h.app.SelectSegment(r.PathValue("id"), *req.Start, *req.End)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// getSegment handles GET /api/sessions/{id}/segment.
func (h *SessionHandler) getSegment(w http.ResponseWriter, r *http.Request) {
	seg, err := h.app.Segment(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seg)
}

// analyze handles POST /api/sessions/{id}/analyze.
func (h *SessionHandler) analyze(w http.ResponseWriter, r *http.Request) {
	var req poseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.app.Analyze(r.PathValue("id"), req.Pose)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// analyzeSmart handles POST /api/sessions/{id}/analyze/smart.
func (h *SessionHandler) analyzeSmart(w http.ResponseWriter, r *http.Request) {
	var req smartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := h.app.ScaleMode()
	if req.Mode != nil {
		mode = *req.Mode
	}

	report, err := h.app.AnalyzeSmart(r.PathValue("id"), req.Pose, mode, req.ScreenWidth, req.ScreenHeight)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// guide handles GET /api/sessions/{id}/guide?t=0.5.
func (h *SessionHandler) guide(w http.ResponseWriter, r *http.Request) {
	t := 0.0
	if raw := r.URL.Query().Get("t"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "t must be a number")
			return
		}
		t = v
	}

	p, err := h.app.Guide(r.PathValue("id"), t)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guideResponse{T: t, Pose: p})
}
