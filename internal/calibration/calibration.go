// Package calibration derives a per-user body transform from a reference pose
// and applies it to poses recorded in the ideal body frame.
package calibration

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/pose"
)

const (
	// IdealShoulderWidth is the shoulder width of the built-in ideal reference pose.
	IdealShoulderWidth = 322.78

	// MinConfidence is the floor shoulders and hips must clear to calibrate.
	MinConfidence = 0.1

	// MinShoulderWidth is the smallest measurable shoulder width.
	MinShoulderWidth = 10.0

	// Quality is assigned to every successful calibration.
	Quality = 0.95

	// MinQuality is the lowest quality at which a calibration is usable.
	MinQuality = 0.5

	minScale = 0.01
	maxScale = 100.0
)

// ErrCalibrationFailed is returned when the reference pose cannot produce a usable calibration.
var ErrCalibrationFailed = errors.New("calibration failed")

// Calibration maps the ideal body frame onto one user's body.
type Calibration struct {
	ScaleFactor  float64         `json:"scale_factor"`
	CenterOffset geometry.Point3 `json:"center_offset"`
	IsCalibrated bool            `json:"is_calibrated"`
	Quality      float64         `json:"quality"`
	JointScales  JointScaleTable `json:"joint_scales"`
}

// Calibrate derives a Calibration from a user's reference pose.
// Invalid poses fail with pose.ErrInvalidPose; unmeasurable bodies fail with ErrCalibrationFailed.
func Calibrate(reference pose.Pose) (Calibration, error) {
	if err := pose.Check(reference); err != nil {
		return Calibration{}, fmt.Errorf("calibrate: %w", err)
	}

	for _, i := range []int{pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip} {
		if !reference.Visible(i, MinConfidence) {
			return Calibration{}, fmt.Errorf("%w: %s confidence %.2f below %.2f",
				ErrCalibrationFailed, pose.Name(i), reference.Landmarks[i].Confidence, MinConfidence)
		}
	}

	shoulderWidth := geometry.Distance(reference.Position(pose.LeftShoulder), reference.Position(pose.RightShoulder))
	if shoulderWidth <= MinShoulderWidth {
		return Calibration{}, fmt.Errorf("%w: shoulder width %.2f too small", ErrCalibrationFailed, shoulderWidth)
	}

	scale := shoulderWidth / IdealShoulderWidth
	if scale <= minScale || scale >= maxScale {
		return Calibration{}, fmt.Errorf("%w: scale factor %.3f out of range", ErrCalibrationFailed, scale)
	}

	offset := geometry.Sub(pose.Centroid(pose.IdealReference()), pose.Centroid(reference))
	offset.Z = 0

	cal := Calibration{
		ScaleFactor:  scale,
		CenterOffset: offset,
		IsCalibrated: true,
		Quality:      Quality,
		JointScales:  measureJointScales(reference),
	}

	slog.Default().Debug("calibrated",
		"shoulder_width", shoulderWidth,
		"scale_factor", scale,
		"joint_scales", len(cal.JointScales))

	return cal, nil
}

// Apply maps p through c: position*scale + offset. Confidence and timestamp pass
// through. An uncalibrated c leaves p unchanged.
func Apply(p pose.Pose, c Calibration) pose.Pose {
	if !c.IsCalibrated {
		return p
	}
	return pose.Transform(p, c.ScaleFactor, c.CenterOffset)
}

// Validate reports whether c is calibrated, has a scale factor in (0.1, 10)
// and at least MinQuality.
func Validate(c Calibration) bool {
	return c.IsCalibrated &&
		c.ScaleFactor > 0.1 && c.ScaleFactor < 10 &&
		c.Quality >= MinQuality
}

// Normalize is the inverse of Apply: it maps a pose from the calibrated
// user's body frame back into the ideal body frame.
func Normalize(p pose.Pose, c Calibration) pose.Pose {
	if !c.IsCalibrated || c.ScaleFactor == 0 {
		return p
	}
	return pose.Transform(pose.Translate(p, geometry.Scale(c.CenterOffset, -1)), 1/c.ScaleFactor, geometry.Point3{})
}
