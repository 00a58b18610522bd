package keypose

import (
	"errors"
	"fmt"

	"github.com/ayusman/repcoach/internal/calibration"
	"github.com/ayusman/repcoach/internal/pose"
)

// ErrRecorderNotCalibrated is returned when recording before the recorder is calibrated.
var ErrRecorderNotCalibrated = errors.New("recorder not calibrated")

// Recorder builds a workout from one person's live poses. Poses are mapped
// from the recorder's body into the ideal frame so any user can replay them.
type Recorder struct {
	cal        calibration.Calibration
	calibrated bool
	workout    *Workout
}

// NewRecorder creates a Recorder for a workout called name.
func NewRecorder(name string) *Recorder {
	return &Recorder{workout: NewWorkout(name)}
}

// Calibrate measures the recorder's body from a reference pose.
func (r *Recorder) Calibrate(reference pose.Pose) error {
	cal, err := calibration.Calibrate(reference)
	if err != nil {
		return err
	}
	r.cal = cal
	r.calibrated = true
	return nil
}

// Record normalizes p into the ideal frame and appends it under name.
func (r *Recorder) Record(name string, p pose.Pose) error {
	if !r.calibrated {
		return ErrRecorderNotCalibrated
	}
	if name == "" {
		return fmt.Errorf("%w: keypose name is empty", ErrInvalidWorkout)
	}
	if err := pose.Check(p); err != nil {
		return fmt.Errorf("record %q: %w", name, err)
	}

	r.workout.Add(name, calibration.Normalize(p, r.cal))
	return nil
}

// Count returns the number of recorded keyposes.
func (r *Recorder) Count() int {
	return r.workout.Count()
}

// Finalize returns the recorded workout and starts a new empty one with the same name.
func (r *Recorder) Finalize() *Workout {
	w := r.workout
	r.workout = NewWorkout(w.Name)
	return w
}

// FinalizeFile writes the recorded workout to path.
func (r *Recorder) FinalizeFile(path string) error {
	if r.workout.Count() == 0 {
		return fmt.Errorf("%w: no keyposes recorded", ErrInvalidWorkout)
	}
	if err := r.workout.SaveFile(path); err != nil {
		return err
	}
	r.Finalize()
	return nil
}
