package pose

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/repcoach/internal/geometry"
)

// MaxCoordinate bounds every landmark coordinate of a valid pose.
const MaxCoordinate = 10000.0

// ErrInvalidPose is returned when a pose has out-of-range coordinates or confidences.
var ErrInvalidPose = errors.New("invalid pose")

// Landmark is one tracked body point with its detection confidence.
// A confidence of 0 means the point was not observed.
type Landmark struct {
	Position   geometry.Point3 `json:"position"`
	Confidence float64         `json:"confidence"`
}

// Pose is a full-body snapshot of NumLandmarks landmarks.
// Transforms never modify a Pose in place; they return a new value.
type Pose struct {
	Landmarks [NumLandmarks]Landmark `json:"landmarks"`
	Timestamp uint64                 `json:"timestamp"`
}

// Check reports the first landmark that makes p invalid, wrapped in ErrInvalidPose.
func Check(p Pose) error {
	for i, lm := range p.Landmarks {
		if !inRange(lm.Position.X) || !inRange(lm.Position.Y) || !inRange(lm.Position.Z) {
			return fmt.Errorf("%w: %s position out of range", ErrInvalidPose, Name(i))
		}
		if !(lm.Confidence >= 0 && lm.Confidence <= 1) {
			return fmt.Errorf("%w: %s confidence %v outside [0,1]", ErrInvalidPose, Name(i), lm.Confidence)
		}
	}
	return nil
}

// Validate reports whether every coordinate lies within ±MaxCoordinate and every
// confidence within [0, 1]. NaN values are rejected.
func Validate(p Pose) bool {
	return Check(p) == nil
}

func inRange(v float64) bool {
	return math.Abs(v) <= MaxCoordinate
}

// Visible reports whether landmark i clears the given confidence floor.
func (p Pose) Visible(i int, minConfidence float64) bool {
	return p.Landmarks[i].Confidence >= minConfidence
}

// Position returns the position of landmark i.
func (p Pose) Position(i int) geometry.Point3 {
	return p.Landmarks[i].Position
}

// Centroid returns the average position over all landmarks, regardless of confidence.
func Centroid(p Pose) geometry.Point3 {
	points := make([]geometry.Point3, NumLandmarks)
	for i, lm := range p.Landmarks {
		points[i] = lm.Position
	}
	return geometry.Mean(points)
}

// HipCenter returns the midpoint of the left and right hips.
func HipCenter(p Pose) geometry.Point3 {
	return geometry.Midpoint(p.Landmarks[LeftHip].Position, p.Landmarks[RightHip].Position)
}

// Translate returns a copy of p with every landmark moved by offset.
func Translate(p Pose, offset geometry.Point3) Pose {
	out := p
	for i := range out.Landmarks {
		out.Landmarks[i].Position = geometry.Add(out.Landmarks[i].Position, offset)
	}
	return out
}

// Transform returns a copy of p with every landmark mapped to position*scale + offset.
// Confidences and the timestamp are preserved.
func Transform(p Pose, scale float64, offset geometry.Point3) Pose {
	out := p
	for i := range out.Landmarks {
		out.Landmarks[i].Position = geometry.Add(geometry.Scale(out.Landmarks[i].Position, scale), offset)
	}
	return out
}

// Rescale returns a copy of p scaled by s about the given origin.
func Rescale(p Pose, origin geometry.Point3, s float64) Pose {
	out := p
	for i := range out.Landmarks {
		rel := geometry.Sub(out.Landmarks[i].Position, origin)
		out.Landmarks[i].Position = geometry.Add(geometry.Scale(rel, s), origin)
	}
	return out
}

// Interpolate blends start toward end by t in [0, 1]. Confidences are averaged
// and the timestamp is interpolated as well.
func Interpolate(start, end Pose, t float64) Pose {
	t = geometry.Clamp(t, 0, 1)

	var out Pose
	for i := range out.Landmarks {
		out.Landmarks[i] = Landmark{
			Position:   geometry.Lerp(start.Landmarks[i].Position, end.Landmarks[i].Position, t),
			Confidence: (start.Landmarks[i].Confidence + end.Landmarks[i].Confidence) / 2,
		}
	}

	ts := float64(start.Timestamp) + (float64(end.Timestamp)-float64(start.Timestamp))*t
	out.Timestamp = uint64(math.Round(ts))
	return out
}

// CountVisible returns how many of the given landmarks clear minConfidence.
// With no indices it counts across the whole pose.
func CountVisible(p Pose, minConfidence float64, indices ...int) int {
	n := 0
	if len(indices) == 0 {
		for _, lm := range p.Landmarks {
			if lm.Confidence >= minConfidence {
				n++
			}
		}
		return n
	}
	for _, i := range indices {
		if p.Landmarks[i].Confidence >= minConfidence {
			n++
		}
	}
	return n
}
