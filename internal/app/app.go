// Package app runs scoring sessions on top of the store and records metrics.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/repcoach/internal/calibration"
	"github.com/ayusman/repcoach/internal/feedback"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/segment"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// Config holds the dependencies and scoring defaults of an App.
type Config struct {
	Store   *store.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	Session      session.Config
	ScaleMode    segment.ScaleMode
	ScreenWidth  float64
	ScreenHeight float64

	// HintDistance is the correction length below which no hint is produced.
	HintDistance float64
}

// DefaultConfig returns a Config without a store.
func DefaultConfig() Config {
	return Config{
		Session:      session.DefaultConfig(),
		ScaleMode:    segment.Exercise,
		ScreenWidth:  1280,
		ScreenHeight: 720,
		HintDistance: feedback.DefaultMinDistance,
	}
}

// SessionInfo describes one registered session.
type SessionInfo struct {
	ID        string    `json:"id"`
	Profile   string    `json:"profile,omitempty"`
	WorkoutID string    `json:"workout_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	session.Info
}

// Report is one scored frame with its correction hints.
type Report struct {
	segment.AnalysisResult
	Hints  []feedback.Hint `json:"hints"`
	Target *pose.Pose      `json:"target,omitempty"`
}

type entry struct {
	mu        sync.Mutex
	sess      *session.Session
	profile   string
	workoutID string
	created   time.Time
}

func (e *entry) info(id string) SessionInfo {
	return SessionInfo{
		ID:        id,
		Profile:   e.profile,
		WorkoutID: e.workoutID,
		CreatedAt: e.created,
		Info:      e.sess.Info(),
	}
}

// App is a registry of scoring sessions. Calls on different sessions run in
// parallel; calls on one session are serialized.
type App struct {
	config Config
	log    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
}

// New creates an App.
func New(config Config) *App {
	if config.Metrics == nil {
		config.Metrics = metrics.New()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.HintDistance <= 0 {
		config.HintDistance = feedback.DefaultMinDistance
	}
	return &App{
		config:   config,
		log:      config.Logger.With("component", "app"),
		sessions: make(map[string]*entry),
	}
}

// Metrics returns the App's counters.
func (a *App) Metrics() *metrics.Metrics {
	return a.config.Metrics
}

// Store returns the backing store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// ScaleMode returns the default smart-analysis mode.
func (a *App) ScaleMode() segment.ScaleMode {
	return a.config.ScaleMode
}

func (a *App) lookup(id string) (*entry, error) {
	a.mu.RLock()
	e, ok := a.sessions[id]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

// with runs fn while holding the session's lock.
func (a *App) with(id string, fn func(e *entry) error) error {
	e, err := a.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e)
}

// CreateSession registers a new session. When profile has a stored
// calibration, the session starts calibrated with it.
func (a *App) CreateSession(profile string) (SessionInfo, error) {
	e := &entry{
		sess:    session.New(a.config.Session),
		profile: profile,
		created: time.Now(),
	}

	if profile != "" && a.config.Store != nil {
		stored, err := a.config.Store.Calibrations().Get(profile)
		switch {
		case err == nil:
			if err := e.sess.SetCalibration(stored.Calibration); err != nil {
				a.log.Warn("stored calibration rejected", "profile", profile, "error", err)
			}
		case errors.Is(err, store.ErrNotFound):
		default:
			return SessionInfo{}, fmt.Errorf("load calibration for %q: %w", profile, err)
		}
	}

	id := uuid.New().String()
	a.mu.Lock()
	a.sessions[id] = e
	a.mu.Unlock()

	a.log.Info("session created", "session", id, "profile", profile)
	return e.info(id), nil
}

// Session returns the state of one session.
func (a *App) Session(id string) (SessionInfo, error) {
	var info SessionInfo
	err := a.with(id, func(e *entry) error {
		info = e.info(id)
		return nil
	})
	return info, err
}

// Sessions lists every registered session, oldest first.
func (a *App) Sessions() []SessionInfo {
	a.mu.RLock()
	ids := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		ids = append(ids, id)
	}
	a.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(ids))
	for _, id := range ids {
		if info, err := a.Session(id); err == nil {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// DeleteSession removes a session.
func (a *App) DeleteSession(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(a.sessions, id)
	a.log.Info("session deleted", "session", id)
	return nil
}

// Calibrate calibrates a session from a reference pose and saves the result
// under the session's profile.
func (a *App) Calibrate(id string, reference pose.Pose) (calibration.Calibration, error) {
	var cal calibration.Calibration
	err := a.with(id, func(e *entry) error {
		var err error
		cal, err = calibration.Calibrate(reference)
		if err != nil {
			return err
		}

		// the session keeps its old calibration if the profile cannot be saved
		if e.profile != "" && a.config.Store != nil {
			if _, err := a.config.Store.Calibrations().Save(e.profile, cal); err != nil {
				return fmt.Errorf("save calibration: %w", err)
			}
		}
		e.sess.Install(cal)
		a.config.Metrics.IncrementCalibrations()
		return nil
	})
	if err != nil {
		a.config.Metrics.IncrementErrors()
		a.log.Debug("calibration failed", "session", id, "error", err)
		return calibration.Calibration{}, err
	}

	a.log.Info("session calibrated", "session", id, "scale", cal.ScaleFactor, "joints", len(cal.JointScales))
	return cal, nil
}

// LoadWorkout loads a stored workout into a calibrated session.
func (a *App) LoadWorkout(id, workoutID string) (SessionInfo, error) {
	if a.config.Store == nil {
		return SessionInfo{}, fmt.Errorf("%w: no workout store", store.ErrNotFound)
	}

	var info SessionInfo
	err := a.with(id, func(e *entry) error {
		w, err := a.config.Store.Workouts().Load(workoutID)
		if err != nil {
			return fmt.Errorf("workout %s: %w", workoutID, err)
		}
		if err := e.sess.LoadKeyposes(w); err != nil {
			return err
		}
		e.workoutID = workoutID
		info = e.info(id)
		return nil
	})
	return info, err
}

// LoadKeyposes loads keyposes from src into a calibrated session.
func (a *App) LoadKeyposes(id string, src session.KeyposeSource) (SessionInfo, error) {
	var info SessionInfo
	err := a.with(id, func(e *entry) error {
		if err := e.sess.LoadKeyposes(src); err != nil {
			return err
		}
		e.workoutID = ""
		info = e.info(id)
		return nil
	})
	return info, err
}

// SelectSegment selects keyposes start and end as the active segment.
func (a *App) SelectSegment(id string, start, end int) (SessionInfo, error) {
	var info SessionInfo
	err := a.with(id, func(e *entry) error {
		if err := e.sess.SelectSegment(start, end); err != nil {
			return err
		}
		info = e.info(id)
		return nil
	})
	return info, err
}

// Segment returns the active segment of a session in the user's body frame.
func (a *App) Segment(id string) (segment.Segment, error) {
	var seg segment.Segment
	err := a.with(id, func(e *entry) error {
		var err error
		seg, err = e.sess.Segment()
		return err
	})
	return seg, err
}

// Analyze scores one frame against the session's segment.
func (a *App) Analyze(id string, current pose.Pose) (Report, error) {
	started := time.Now()
	var res segment.AnalysisResult
	err := a.with(id, func(e *entry) error {
		var err error
		res, err = e.sess.Analyze(current)
		return err
	})
	if err != nil {
		a.config.Metrics.IncrementErrors()
		return Report{}, err
	}

	a.config.Metrics.RecordFrame(time.Since(started), res.Completed)
	return a.report(res, nil), nil
}

// AnalyzeSmart re-anchors the segment to current before scoring. Zero
// screen sizes use the configured defaults.
func (a *App) AnalyzeSmart(id string, current pose.Pose, mode segment.ScaleMode, screenWidth, screenHeight float64) (Report, error) {
	if screenWidth == 0 {
		screenWidth = a.config.ScreenWidth
	}
	if screenHeight == 0 {
		screenHeight = a.config.ScreenHeight
	}

	started := time.Now()
	var (
		res    segment.AnalysisResult
		target pose.Pose
	)
	err := a.with(id, func(e *entry) error {
		var err error
		res, target, err = e.sess.AnalyzeSmart(current, mode, screenWidth, screenHeight)
		return err
	})
	if err != nil {
		a.config.Metrics.IncrementErrors()
		return Report{}, err
	}

	a.config.Metrics.RecordFrame(time.Since(started), res.Completed)
	a.config.Metrics.RecordSmart(res.Reanchored)
	return a.report(res, &target), nil
}

func (a *App) report(res segment.AnalysisResult, target *pose.Pose) Report {
	hints := feedback.Hints(res.Corrections, a.config.HintDistance)
	if hints == nil {
		hints = []feedback.Hint{}
	}
	return Report{AnalysisResult: res, Hints: hints, Target: target}
}

// Guide returns the guide pose t of the way through the session's segment.
func (a *App) Guide(id string, t float64) (pose.Pose, error) {
	var p pose.Pose
	err := a.with(id, func(e *entry) error {
		var err error
		p, err = e.sess.Guide(t)
		return err
	})
	return p, err
}

// ResetSession drops a session's calibration, keyposes and segment.
func (a *App) ResetSession(id string) (SessionInfo, error) {
	var info SessionInfo
	err := a.with(id, func(e *entry) error {
		e.sess.Reset()
		e.workoutID = ""
		info = e.info(id)
		return nil
	})
	return info, err
}
