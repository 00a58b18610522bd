package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/repcoach/internal/keypose"
)

// Keypose is one stored keypose of a workout.
type Keypose struct {
	ID        int64                    `json:"id"`
	WorkoutID string                   `json:"workout_id"`
	Sequence  int                      `json:"sequence"`
	Name      string                   `json:"name"`
	Timestamp uint64                   `json:"timestamp"`
	Landmarks []keypose.LandmarkRecord `json:"landmarks"`
}

// Entry converts the stored keypose back to its workout entry.
func (k Keypose) Entry() keypose.Entry {
	return keypose.Entry{Name: k.Name, Timestamp: k.Timestamp, Landmarks: k.Landmarks}
}

// KeyposeRepository reads and appends keyposes of stored workouts.
type KeyposeRepository struct {
	db *sql.DB
}

// Keyposes returns the keypose repository for this store.
func (s *Store) Keyposes() *KeyposeRepository {
	return &KeyposeRepository{db: s.db}
}

func scanKeypose(row interface{ Scan(...any) error }) (Keypose, error) {
	var (
		k    Keypose
		ts   int64
		data string
	)
	if err := row.Scan(&k.ID, &k.WorkoutID, &k.Sequence, &k.Name, &ts, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Keypose{}, ErrNotFound
		}
		return Keypose{}, err
	}
	k.Timestamp = uint64(ts)
	if err := json.Unmarshal([]byte(data), &k.Landmarks); err != nil {
		return Keypose{}, fmt.Errorf("keypose %d landmarks: %w", k.ID, err)
	}
	return k, nil
}

// List returns the keyposes of a workout in sequence order.
func (r *KeyposeRepository) List(workoutID string) ([]Keypose, error) {
	rows, err := r.db.Query(
		`SELECT id, workout_id, sequence, name, timestamp_ms, landmarks
		 FROM keyposes WHERE workout_id = ? ORDER BY sequence`,
		workoutID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keyposes []Keypose
	for rows.Next() {
		k, err := scanKeypose(rows)
		if err != nil {
			return nil, err
		}
		keyposes = append(keyposes, k)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keyposes, nil
}

// Get returns the keypose at sequence in a workout.
func (r *KeyposeRepository) Get(workoutID string, sequence int) (Keypose, error) {
	return scanKeypose(r.db.QueryRow(
		`SELECT id, workout_id, sequence, name, timestamp_ms, landmarks
		 FROM keyposes WHERE workout_id = ? AND sequence = ?`,
		workoutID, sequence,
	))
}

// Append adds e at the end of a workout and bumps its pose count.
func (r *KeyposeRepository) Append(workoutID string, e keypose.Entry) (Keypose, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return Keypose{}, err
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRow(`SELECT poses FROM workouts WHERE id = ?`, workoutID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Keypose{}, ErrNotFound
		}
		return Keypose{}, err
	}

	if err := insertKeyposes(tx, workoutID, count, []keypose.Entry{e}); err != nil {
		return Keypose{}, err
	}
	_, err = tx.Exec(`UPDATE workouts SET poses = ?, updated_at = ? WHERE id = ?`, count+1, time.Now(), workoutID)
	if err != nil {
		return Keypose{}, err
	}

	if err := tx.Commit(); err != nil {
		return Keypose{}, err
	}
	return r.Get(workoutID, count)
}
