// Package keypose reads and writes workout files: named keyposes recorded in
// the ideal body frame.
package keypose

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/pose"
)

// Version is written to every workout file.
const Version = "2.0.0"

// MinLandmarks is the fewest landmarks a stored keypose may carry.
const MinLandmarks = pose.NumLandmarks / 2

const schemaURL = "workout-v2.schema.json"

var (
	// ErrInvalidWorkout is returned when a workout file fails to decode or validate.
	ErrInvalidWorkout = errors.New("invalid workout")

	// ErrPoseNotFound is returned for a keypose index outside the workout.
	ErrPoseNotFound = errors.New("keypose not found")
)

//go:embed workout.schema.json
var schemaData []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaData)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// LandmarkRecord is one stored landmark.
type LandmarkRecord struct {
	Index      int             `json:"index"`
	Position   geometry.Point3 `json:"position"`
	Confidence float64         `json:"confidence"`
}

// Entry is one named keypose.
type Entry struct {
	Name      string           `json:"name"`
	Timestamp uint64           `json:"timestamp"`
	Landmarks []LandmarkRecord `json:"landmarks"`
}

// Workout is an ordered list of keyposes.
type Workout struct {
	Name    string  `json:"workout_name"`
	Version string  `json:"version"`
	Poses   []Entry `json:"poses"`
}

// NewWorkout creates an empty workout.
func NewWorkout(name string) *Workout {
	return &Workout{Name: name, Version: Version}
}

// EntryFromPose stores every landmark of p under name.
func EntryFromPose(name string, p pose.Pose) Entry {
	e := Entry{
		Name:      name,
		Timestamp: p.Timestamp,
		Landmarks: make([]LandmarkRecord, pose.NumLandmarks),
	}
	for i, lm := range p.Landmarks {
		e.Landmarks[i] = LandmarkRecord{Index: i, Position: lm.Position, Confidence: lm.Confidence}
	}
	return e
}

// Pose rebuilds the keypose. Landmarks missing from the entry are unobserved.
func (e Entry) Pose() (pose.Pose, error) {
	if len(e.Landmarks) < MinLandmarks {
		return pose.Pose{}, fmt.Errorf("%w: keypose %q has %d landmarks, need %d",
			ErrInvalidWorkout, e.Name, len(e.Landmarks), MinLandmarks)
	}

	p := pose.Pose{Timestamp: e.Timestamp}
	var seen [pose.NumLandmarks]bool
	distinct := 0
	for _, rec := range e.Landmarks {
		if rec.Index < 0 || rec.Index >= pose.NumLandmarks {
			return pose.Pose{}, fmt.Errorf("%w: keypose %q landmark index %d", ErrInvalidWorkout, e.Name, rec.Index)
		}
		if seen[rec.Index] {
			return pose.Pose{}, fmt.Errorf("%w: keypose %q repeats landmark index %d", ErrInvalidWorkout, e.Name, rec.Index)
		}
		seen[rec.Index] = true
		distinct++
		p.Landmarks[rec.Index] = pose.Landmark{Position: rec.Position, Confidence: rec.Confidence}
	}
	if distinct < MinLandmarks {
		return pose.Pose{}, fmt.Errorf("%w: keypose %q has %d distinct landmarks, need %d",
			ErrInvalidWorkout, e.Name, distinct, MinLandmarks)
	}

	if err := pose.Check(p); err != nil {
		return pose.Pose{}, fmt.Errorf("keypose %q: %w", e.Name, err)
	}
	return p, nil
}

// Add appends a keypose.
func (w *Workout) Add(name string, p pose.Pose) {
	w.Poses = append(w.Poses, EntryFromPose(name, p))
}

// Count returns the number of keyposes.
func (w *Workout) Count() int {
	return len(w.Poses)
}

// Load returns keypose i.
func (w *Workout) Load(i int) (pose.Pose, error) {
	if i < 0 || i >= len(w.Poses) {
		return pose.Pose{}, fmt.Errorf("%w: index %d of %d", ErrPoseNotFound, i, len(w.Poses))
	}
	return w.Poses[i].Pose()
}

// Names returns the keypose names in order.
func (w *Workout) Names() []string {
	names := make([]string, len(w.Poses))
	for i, e := range w.Poses {
		names[i] = e.Name
	}
	return names
}

// Decode reads a workout, validating it against the workout schema first.
func Decode(r io.Reader) (*Workout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workout: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkout, err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkout, err)
	}

	var w Workout
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkout, err)
	}

	for i := range w.Poses {
		if _, err := w.Poses[i].Pose(); err != nil {
			if errors.Is(err, ErrInvalidWorkout) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: pose %d: %w", ErrInvalidWorkout, i, err)
		}
	}
	return &w, nil
}

// Encode writes w as indented JSON.
func (w *Workout) Encode(out io.Writer) error {
	if w.Version == "" {
		w.Version = Version
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("encode workout: %w", err)
	}
	return nil
}

// LoadFile reads and validates the workout at path.
func LoadFile(path string) (*Workout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workout: %w", err)
	}
	defer f.Close()

	w, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// SaveFile writes w to path by way of a temporary file.
func (w *Workout) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := w.Encode(&buf); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write workout: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write workout: %w", err)
	}
	return nil
}
