package store

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/keypose"
	"github.com/ayusman/repcoach/internal/pose"
)

const epsilon = 1e-9

func squatWorkout() *keypose.Workout {
	w := keypose.NewWorkout("squat")
	w.Add("standing", pose.StandingPose())
	w.Add("bottom", pose.SquatPose())
	return w
}

func TestWorkoutRepository_CreateAndLoad(t *testing.T) {
	s := newTestStore(t)
	repo := s.Workouts()

	rec, err := repo.Create(squatWorkout())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected generated ID")
	}
	if rec.Poses != 2 {
		t.Errorf("Poses = %d, want 2", rec.Poses)
	}

	got, err := repo.GetByID(rec.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "squat" || got.Version != keypose.Version {
		t.Errorf("unexpected metadata: %+v", got)
	}

	byName, err := repo.GetByName("squat")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if byName.ID != rec.ID {
		t.Errorf("GetByName ID = %q, want %q", byName.ID, rec.ID)
	}

	w, err := repo.Load(rec.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if w.Count() != 2 {
		t.Fatalf("Count = %d, want 2", w.Count())
	}
	if names := w.Names(); names[0] != "standing" || names[1] != "bottom" {
		t.Errorf("Names = %v", names)
	}

	bottom, err := w.Load(1)
	if err != nil {
		t.Fatalf("Load(1) failed: %v", err)
	}
	want := pose.SquatPose()
	for i := range want.Landmarks {
		if geometry.Distance(bottom.Landmarks[i].Position, want.Landmarks[i].Position) > epsilon {
			t.Fatalf("landmark %d = %+v, want %+v", i, bottom.Landmarks[i].Position, want.Landmarks[i].Position)
		}
		if math.Abs(bottom.Landmarks[i].Confidence-want.Landmarks[i].Confidence) > epsilon {
			t.Fatalf("landmark %d confidence = %v", i, bottom.Landmarks[i].Confidence)
		}
	}
	if bottom.Timestamp != want.Timestamp {
		t.Errorf("Timestamp = %d, want %d", bottom.Timestamp, want.Timestamp)
	}
}

func TestWorkoutRepository_DuplicateName(t *testing.T) {
	repo := newTestStore(t).Workouts()

	if _, err := repo.Create(squatWorkout()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := repo.Create(squatWorkout())
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestWorkoutRepository_NotFound(t *testing.T) {
	repo := newTestStore(t).Workouts()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByName: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Replace("missing", squatWorkout()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace: expected ErrNotFound, got %v", err)
	}
}

func TestWorkoutRepository_List(t *testing.T) {
	repo := newTestStore(t).Workouts()

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	for _, name := range []string{"squat", "lunge"} {
		w := squatWorkout()
		w.Name = name
		if _, err := repo.Create(w); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	list, err = repo.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 workouts, got %d", len(list))
	}
}

func TestWorkoutRepository_Replace(t *testing.T) {
	repo := newTestStore(t).Workouts()

	rec, err := repo.Create(squatWorkout())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	w := keypose.NewWorkout("squat v2")
	w.Add("only", pose.StandingPose())
	updated, err := repo.Replace(rec.ID, w)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if updated.Name != "squat v2" || updated.Poses != 1 {
		t.Errorf("unexpected metadata after replace: %+v", updated)
	}

	loaded, err := repo.Load(rec.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Count() != 1 {
		t.Errorf("Count = %d, want 1", loaded.Count())
	}
}

func TestWorkoutRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	repo := s.Workouts()

	rec, err := repo.Create(squatWorkout())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Delete(rec.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM keyposes WHERE workout_id = ?", rec.ID).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected keyposes to be deleted, %d remain", n)
	}
}

func TestKeyposeRepository_Append(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Workouts().Create(squatWorkout())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	kp, err := s.Keyposes().Append(rec.ID, keypose.EntryFromPose("standing again", pose.StandingPose()))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if kp.Sequence != 2 {
		t.Errorf("Sequence = %d, want 2", kp.Sequence)
	}
	if len(kp.Landmarks) != pose.NumLandmarks {
		t.Errorf("landmarks = %d, want %d", len(kp.Landmarks), pose.NumLandmarks)
	}

	meta, err := s.Workouts().GetByID(rec.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if meta.Poses != 3 {
		t.Errorf("Poses = %d, want 3", meta.Poses)
	}

	list, err := s.Keyposes().List(rec.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for i, k := range list {
		if k.Sequence != i {
			t.Errorf("keypose %d has sequence %d", i, k.Sequence)
		}
	}
}

func TestKeyposeRepository_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Keyposes().Append("missing", keypose.EntryFromPose("x", pose.StandingPose())); !errors.Is(err, ErrNotFound) {
		t.Errorf("Append: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Keyposes().Get("missing", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
}
