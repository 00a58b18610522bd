package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/repcoach/internal/keypose"
)

// ErrDuplicate is returned when a workout name is already taken.
var ErrDuplicate = errors.New("already exists")

// Workout is the stored metadata of a keypose workout.
type Workout struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Poses     int       `json:"poses"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkoutRepository stores workouts together with their keyposes.
type WorkoutRepository struct {
	db *sql.DB
}

// Workouts returns the workout repository for this store.
func (s *Store) Workouts() *WorkoutRepository {
	return &WorkoutRepository{db: s.db}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts w and all of its keyposes in one transaction.
func (r *WorkoutRepository) Create(w *keypose.Workout) (*Workout, error) {
	now := time.Now()
	rec := &Workout{
		ID:        uuid.New().String(),
		Name:      w.Name,
		Version:   w.Version,
		Poses:     w.Count(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO workouts (id, name, version, poses, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Version, rec.Poses, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("workout %q: %w", w.Name, ErrDuplicate)
		}
		return nil, err
	}

	if err := insertKeyposes(tx, rec.ID, 0, w.Poses); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

func insertKeyposes(tx *sql.Tx, workoutID string, first int, entries []keypose.Entry) error {
	stmt, err := tx.Prepare(
		`INSERT INTO keyposes (workout_id, sequence, name, timestamp_ms, landmarks) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		data, err := json.Marshal(e.Landmarks)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(workoutID, first+i, e.Name, int64(e.Timestamp), string(data)); err != nil {
			return err
		}
	}
	return nil
}

const workoutColumns = `id, name, version, poses, created_at, updated_at`

func scanWorkout(row interface{ Scan(...any) error }) (*Workout, error) {
	w := &Workout{}
	if err := row.Scan(&w.ID, &w.Name, &w.Version, &w.Poses, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// GetByID retrieves workout metadata by ID.
func (r *WorkoutRepository) GetByID(id string) (*Workout, error) {
	return scanWorkout(r.db.QueryRow(`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id))
}

// GetByName retrieves workout metadata by name.
func (r *WorkoutRepository) GetByName(name string) (*Workout, error) {
	return scanWorkout(r.db.QueryRow(`SELECT `+workoutColumns+` FROM workouts WHERE name = ?`, name))
}

// List returns all workouts, newest first.
func (r *WorkoutRepository) List() ([]*Workout, error) {
	rows, err := r.db.Query(`SELECT ` + workoutColumns + ` FROM workouts ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

// Load rebuilds the full keypose workout stored under id.
func (r *WorkoutRepository) Load(id string) (*keypose.Workout, error) {
	meta, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	entries, err := (&KeyposeRepository{db: r.db}).List(id)
	if err != nil {
		return nil, err
	}

	w := &keypose.Workout{Name: meta.Name, Version: meta.Version}
	for _, kp := range entries {
		w.Poses = append(w.Poses, kp.Entry())
	}
	return w, nil
}

// Replace swaps the name and keyposes of an existing workout.
func (r *WorkoutRepository) Replace(id string, w *keypose.Workout) (*Workout, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(
		`UPDATE workouts SET name = ?, version = ?, poses = ?, updated_at = ? WHERE id = ?`,
		w.Name, w.Version, w.Count(), now, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("workout %q: %w", w.Name, ErrDuplicate)
		}
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM keyposes WHERE workout_id = ?`, id); err != nil {
		return nil, err
	}
	if err := insertKeyposes(tx, id, 0, w.Poses); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Delete removes a workout and its keyposes.
func (r *WorkoutRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
