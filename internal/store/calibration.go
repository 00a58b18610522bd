package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/repcoach/internal/calibration"
	"github.com/ayusman/repcoach/internal/geometry"
)

// Profile is the last calibration saved for a user profile.
type Profile struct {
	Name        string                  `json:"profile"`
	ID          string                  `json:"id"`
	Calibration calibration.Calibration `json:"calibration"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// CalibrationRepository keeps one calibration per profile.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Save stores c as the profile's calibration, replacing any earlier one.
func (r *CalibrationRepository) Save(profile string, c calibration.Calibration) (*Profile, error) {
	scales, err := json.Marshal(c.JointScales)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		Name:        profile,
		ID:          uuid.New().String(),
		Calibration: c,
		UpdatedAt:   time.Now(),
	}

	_, err = r.db.Exec(
		`INSERT INTO calibrations (profile, id, scale_factor, offset_x, offset_y, offset_z, quality, joint_scales, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(profile) DO UPDATE SET
			id = excluded.id,
			scale_factor = excluded.scale_factor,
			offset_x = excluded.offset_x,
			offset_y = excluded.offset_y,
			offset_z = excluded.offset_z,
			quality = excluded.quality,
			joint_scales = excluded.joint_scales,
			updated_at = excluded.updated_at`,
		p.Name, p.ID, c.ScaleFactor, c.CenterOffset.X, c.CenterOffset.Y, c.CenterOffset.Z, c.Quality, string(scales), p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the stored calibration of a profile.
func (r *CalibrationRepository) Get(profile string) (*Profile, error) {
	var (
		p      Profile
		off    geometry.Point3
		scales string
	)
	err := r.db.QueryRow(
		`SELECT profile, id, scale_factor, offset_x, offset_y, offset_z, quality, joint_scales, updated_at
		 FROM calibrations WHERE profile = ?`,
		profile,
	).Scan(&p.Name, &p.ID, &p.Calibration.ScaleFactor, &off.X, &off.Y, &off.Z, &p.Calibration.Quality, &scales, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(scales), &p.Calibration.JointScales); err != nil {
		return nil, err
	}
	p.Calibration.CenterOffset = off
	p.Calibration.IsCalibrated = true
	return &p, nil
}

// Delete forgets a profile's calibration.
func (r *CalibrationRepository) Delete(profile string) error {
	result, err := r.db.Exec(`DELETE FROM calibrations WHERE profile = ?`, profile)
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
