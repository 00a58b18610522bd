package segment

import (
	"fmt"
	"log/slog"

	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/pose"
)

// ScaleMode selects how smart analysis sizes and places the target pose.
type ScaleMode int

const (
	// Measurement anchors on the hips, sizes by shoulder-to-ankle distance and
	// keeps the target centered horizontally on screen.
	Measurement ScaleMode = iota
	// Exercise anchors on the feet, sizes by shoulder width and follows the user.
	Exercise
)

const (
	// MinVisibleConfidence is the confidence used for visibility checks during re-anchoring.
	MinVisibleConfidence = 0.3

	minVisibleLandmarks = 8
	minVisibleArms      = 3
	minVisibleLegs      = 3
)

var (
	armLandmarks = []int{
		pose.LeftShoulder, pose.RightShoulder,
		pose.LeftElbow, pose.RightElbow,
		pose.LeftWrist, pose.RightWrist,
	}
	legLandmarks = []int{
		pose.LeftHip, pose.RightHip,
		pose.LeftKnee, pose.RightKnee,
		pose.LeftAnkle, pose.RightAnkle,
	}
)

// String returns the lowercase mode name.
func (m ScaleMode) String() string {
	switch m {
	case Measurement:
		return "measurement"
	case Exercise:
		return "exercise"
	default:
		return fmt.Sprintf("ScaleMode(%d)", int(m))
	}
}

// ParseScaleMode parses "measurement" or "exercise".
func ParseScaleMode(s string) (ScaleMode, error) {
	switch s {
	case "measurement":
		return Measurement, nil
	case "exercise":
		return Exercise, nil
	default:
		return 0, fmt.Errorf("%w: unknown scale mode %q", ErrInvalidParameter, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ScaleMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ScaleMode) UnmarshalText(text []byte) error {
	parsed, err := ParseScaleMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Trackable reports whether enough of the body is visible for re-anchoring:
// 8 landmarks overall, 3 of the arm landmarks and 3 of the leg landmarks.
func Trackable(p pose.Pose) bool {
	return pose.CountVisible(p, MinVisibleConfidence) >= minVisibleLandmarks &&
		pose.CountVisible(p, MinVisibleConfidence, armLandmarks...) >= minVisibleArms &&
		pose.CountVisible(p, MinVisibleConfidence, legLandmarks...) >= minVisibleLegs
}

// pairAnchor returns the midpoint of a and b, or the single visible one.
func pairAnchor(p pose.Pose, a, b int) (geometry.Point3, bool) {
	av := p.Visible(a, MinVisibleConfidence)
	bv := p.Visible(b, MinVisibleConfidence)
	switch {
	case av && bv:
		return geometry.Midpoint(p.Position(a), p.Position(b)), true
	case av:
		return p.Position(a), true
	case bv:
		return p.Position(b), true
	default:
		return geometry.Point3{}, false
	}
}

// Anchor returns the point smart analysis pins a pose to: the ankle center in
// Exercise mode, falling back to the hips, and the hip center in Measurement mode.
func Anchor(p pose.Pose, mode ScaleMode) (geometry.Point3, bool) {
	if mode == Exercise {
		if a, ok := pairAnchor(p, pose.LeftAnkle, pose.RightAnkle); ok {
			return a, true
		}
	}
	return pairAnchor(p, pose.LeftHip, pose.RightHip)
}

// bodySize returns the distance used to compare apparent body sizes.
func bodySize(p pose.Pose, mode ScaleMode) (float64, bool) {
	if mode == Exercise {
		if !p.Visible(pose.LeftShoulder, MinVisibleConfidence) || !p.Visible(pose.RightShoulder, MinVisibleConfidence) {
			return 0, false
		}
		return geometry.Distance2D(p.Position(pose.LeftShoulder), p.Position(pose.RightShoulder)), true
	}

	if !p.Visible(pose.LeftShoulder, MinVisibleConfidence) || !p.Visible(pose.LeftAnkle, MinVisibleConfidence) {
		return 0, false
	}
	return geometry.Distance(p.Position(pose.LeftShoulder), p.Position(pose.LeftAnkle)), true
}

// reanchor moves p so its anchor sits at the origin, scales it, then places
// it at the user's anchor. Measurement mode centers X on screen instead.
func reanchor(p pose.Pose, from geometry.Point3, scale float64, to geometry.Point3, mode ScaleMode, screenWidth float64) pose.Pose {
	out := pose.Transform(pose.Translate(p, geometry.Scale(from, -1)), scale, geometry.Point3{})

	if mode == Exercise {
		return pose.Translate(out, to)
	}

	var xs []geometry.Point3
	for _, lm := range out.Landmarks {
		if lm.Confidence >= MinVisibleConfidence {
			xs = append(xs, lm.Position)
		}
	}
	offsetX := screenWidth/2 - geometry.Mean(xs).X

	return pose.Translate(out, geometry.Point3{X: offsetX, Y: to.Y, Z: to.Z})
}

// AnalyzeSmart resizes and re-places the segment to the user's current
// apparent size and position, then scores current against it. It returns the
// result and the re-anchored end pose to display as the target.
//
// When current does not show enough of the body the result is zero and the
// target is the stored end pose. When size or anchor cannot be measured the
// frame is scored against the stored segment.
func (s Scorer) AnalyzeSmart(current pose.Pose, seg Segment, mode ScaleMode, screenWidth, screenHeight float64) (AnalysisResult, pose.Pose, error) {
	if err := pose.Check(current); err != nil {
		return AnalysisResult{}, pose.Pose{}, fmt.Errorf("analyze smart: %w", err)
	}
	if mode != Measurement && mode != Exercise {
		return AnalysisResult{}, pose.Pose{}, fmt.Errorf("analyze smart: %w: scale mode %d", ErrInvalidParameter, int(mode))
	}
	if screenWidth < 0 || screenHeight < 0 {
		return AnalysisResult{}, pose.Pose{}, fmt.Errorf("analyze smart: %w: negative screen size", ErrInvalidParameter)
	}

	log := slog.Default()

	if !Trackable(current) {
		log.Debug("smart analysis skipped", "reason", "body not trackable")
		return AnalysisResult{Timestamp: current.Timestamp}, seg.End, nil
	}

	fallback := func(reason string) (AnalysisResult, pose.Pose, error) {
		log.Debug("smart analysis fell back to stored segment", "reason", reason, "mode", mode.String())
		return s.score(current, seg.Start, seg.End), seg.End, nil
	}

	if !bothVisible(current, seg.End, pose.LeftShoulder) || !bothVisible(current, seg.End, pose.RightShoulder) {
		return fallback("shoulders not visible")
	}

	currentSize, ok := bodySize(current, mode)
	if !ok || currentSize <= 0 {
		return fallback("current body size unmeasurable")
	}
	targetSize, ok := bodySize(seg.End, mode)
	if !ok || targetSize <= 0 {
		return fallback("target body size unmeasurable")
	}
	scale := currentSize / targetSize

	userAnchor, ok := Anchor(current, mode)
	if !ok {
		return fallback("current anchor not visible")
	}
	endAnchor, ok := Anchor(seg.End, mode)
	if !ok {
		return fallback("target anchor not visible")
	}
	startAnchor, ok := Anchor(seg.Start, mode)
	if !ok {
		startAnchor = endAnchor
	}

	start := reanchor(seg.Start, startAnchor, scale, userAnchor, mode, screenWidth)
	end := reanchor(seg.End, endAnchor, scale, userAnchor, mode, screenWidth)

	result := s.score(current, start, end)
	result.Reanchored = true
	return result, end, nil
}

// AnalyzeSmart scores current with DefaultScorer.
func AnalyzeSmart(current pose.Pose, seg Segment, mode ScaleMode, screenWidth, screenHeight float64) (AnalysisResult, pose.Pose, error) {
	return DefaultScorer.AnalyzeSmart(current, seg, mode, screenWidth, screenHeight)
}
