package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ayusman/repcoach/internal/keypose"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/store"
)

// WorkoutHandler serves stored workouts and their keyposes.
type WorkoutHandler struct {
	store *store.Store
	log   *slog.Logger
}

// NewWorkoutHandler creates a WorkoutHandler backed by s.
func NewWorkoutHandler(s *store.Store, log *slog.Logger) *WorkoutHandler {
	return &WorkoutHandler{store: s, log: log}
}

// Register adds the workout routes to mux.
func (h *WorkoutHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/workouts", h.list)
	mux.HandleFunc("POST /api/workouts", h.create)
	mux.HandleFunc("GET /api/workouts/{id}", h.get)
	mux.HandleFunc("PUT /api/workouts/{id}", h.replace)
	mux.HandleFunc("DELETE /api/workouts/{id}", h.delete)
	mux.HandleFunc("GET /api/workouts/{id}/export", h.export)
	mux.HandleFunc("GET /api/workouts/{id}/keyposes", h.listKeyposes)
	mux.HandleFunc("POST /api/workouts/{id}/keyposes", h.appendKeypose)
}

type listWorkoutsResponse struct {
	Workouts []*store.Workout `json:"workouts"`
}

type workoutResponse struct {
	*store.Workout
	Keyposes []string `json:"keyposes"`
}

type listKeyposesResponse struct {
	Keyposes []store.Keypose `json:"keyposes"`
}

type appendKeyposeRequest struct {
	Name string    `json:"name"`
	Pose pose.Pose `json:"pose"`
}

// list handles GET /api/workouts.
func (h *WorkoutHandler) list(w http.ResponseWriter, r *http.Request) {
	workouts, err := h.store.Workouts().List()
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	if workouts == nil {
		workouts = []*store.Workout{}
	}
	writeJSON(w, http.StatusOK, listWorkoutsResponse{Workouts: workouts})
}

// create handles POST /api/workouts. The body is a workout file.
func (h *WorkoutHandler) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	wk, err := keypose.Decode(r.Body)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}

	rec, err := h.store.Workouts().Create(wk)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}

	h.log.Info("workout imported", "id", rec.ID, "name", rec.Name, "poses", rec.Poses)
	writeJSON(w, http.StatusCreated, workoutResponse{Workout: rec, Keyposes: wk.Names()})
}

// get handles GET /api/workouts/{id}.
func (h *WorkoutHandler) get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.store.Workouts().GetByID(id)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	wk, err := h.store.Workouts().Load(id)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workoutResponse{Workout: rec, Keyposes: wk.Names()})
}

// replace handles PUT /api/workouts/{id}. The body is a workout file.
func (h *WorkoutHandler) replace(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	wk, err := keypose.Decode(r.Body)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}

	rec, err := h.store.Workouts().Replace(r.PathValue("id"), wk)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workoutResponse{Workout: rec, Keyposes: wk.Names()})
}

// delete handles DELETE /api/workouts/{id}.
func (h *WorkoutHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Workouts().Delete(r.PathValue("id")); err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// export handles GET /api/workouts/{id}/export and returns the workout file.
func (h *WorkoutHandler) export(w http.ResponseWriter, r *http.Request) {
	wk, err := h.store.Workouts().Load(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", wk.Name+".json"))
	if err := wk.Encode(w); err != nil {
		h.log.Error("export workout", "id", r.PathValue("id"), "error", err)
	}
}

// listKeyposes handles GET /api/workouts/{id}/keyposes.
func (h *WorkoutHandler) listKeyposes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.store.Workouts().GetByID(id); err != nil {
		writeFailure(w, h.log, r, err)
		return
	}

	keyposes, err := h.store.Keyposes().List(id)
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	if keyposes == nil {
		keyposes = []store.Keypose{}
	}
	writeJSON(w, http.StatusOK, listKeyposesResponse{Keyposes: keyposes})
}

// appendKeypose handles POST /api/workouts/{id}/keyposes. The pose must
// already be in the ideal body frame.
func (h *WorkoutHandler) appendKeypose(w http.ResponseWriter, r *http.Request) {
	var req appendKeyposeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := pose.Check(req.Pose); err != nil {
		writeFailure(w, h.log, r, err)
		return
	}

	kp, err := h.store.Keyposes().Append(r.PathValue("id"), keypose.EntryFromPose(req.Name, req.Pose))
	if err != nil {
		writeFailure(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, kp)
}
