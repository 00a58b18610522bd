// Package segment scores a live pose against the start and end keyposes of
// one exercise repetition.
package segment

import (
	"errors"
	"fmt"

	"github.com/ayusman/repcoach/internal/calibration"
	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/pose"
)

const (
	// MinJointConfidence is the confidence a joint needs to take part in scoring.
	MinJointConfidence = 0.5

	// DefaultCompletionThreshold is the similarity at which a repetition counts as complete.
	DefaultCompletionThreshold = 0.8

	// staticJointDistance is how far a joint must travel between start and end
	// before it counts as moving.
	staticJointDistance = 10.0
	staticJointWeight   = 10.0

	// similarityRange is the average joint distance that maps to zero similarity.
	similarityRange = 500.0
)

// ErrInvalidParameter is returned for out-of-range arguments.
var ErrInvalidParameter = errors.New("invalid parameter")

// MainJoints are the joints used for progress and similarity. Hips and face
// points are left out.
var MainJoints = []int{
	pose.LeftShoulder, pose.RightShoulder,
	pose.LeftElbow, pose.RightElbow,
	pose.LeftWrist, pose.RightWrist,
	pose.LeftKnee, pose.RightKnee,
	pose.LeftAnkle, pose.RightAnkle,
}

// CompletionJoints are the joints checked by IsCompleted.
var CompletionJoints = []int{
	pose.LeftShoulder, pose.RightShoulder,
	pose.LeftElbow, pose.RightElbow,
	pose.LeftKnee, pose.RightKnee,
}

// Segment is the calibrated start and end keypose of one repetition.
type Segment struct {
	Start pose.Pose `json:"start"`
	End   pose.Pose `json:"end"`
}

// AnalysisResult is the score of one frame.
type AnalysisResult struct {
	Progress    float64                            `json:"progress"`
	Similarity  float64                            `json:"similarity"`
	Completed   bool                               `json:"completed"`
	Corrections [pose.NumLandmarks]geometry.Point3 `json:"corrections"`
	Timestamp   uint64                             `json:"timestamp"`
	Reanchored  bool                               `json:"reanchored"`
}

// Select transforms an ideal-frame keypose pair into the user's body frame.
func Select(cal calibration.Calibration, start, end pose.Pose) Segment {
	return Segment{
		Start: calibration.Apply(start, cal),
		End:   calibration.Apply(end, cal),
	}
}

// Interpolate returns the guide pose t of the way from the segment's start to its end.
func Interpolate(seg Segment, t float64) pose.Pose {
	return pose.Interpolate(seg.Start, seg.End, t)
}

func bothVisible(a, b pose.Pose, joint int) bool {
	return a.Visible(joint, MinJointConfidence) && b.Visible(joint, MinJointConfidence)
}

func hipRelative(p pose.Pose, joint int, hip geometry.Point3) geometry.Point3 {
	return geometry.Sub(p.Position(joint), hip)
}

// Progress estimates how far current has moved from start toward end, in [0, 1].
// Positions are taken relative to each pose's own hip center. Joints that move
// more than 10 units weigh by their travel and saturate at half the distance;
// joints that barely move count as done with a small fixed weight.
func Progress(current, start, end pose.Pose) float64 {
	curHip := pose.HipCenter(current)
	startHip := pose.HipCenter(start)
	endHip := pose.HipCenter(end)

	var weighted, total float64
	for _, j := range MainJoints {
		if !current.Visible(j, MinJointConfidence) || !bothVisible(start, end, j) {
			continue
		}

		cur := hipRelative(current, j, curHip)
		s := hipRelative(start, j, startHip)
		e := hipRelative(end, j, endHip)

		startToEnd := geometry.Distance(s, e)
		ratio, weight := 1.0, staticJointWeight
		if startToEnd > staticJointDistance {
			currentToEnd := geometry.Distance(cur, e)
			ratio = geometry.Clamp(1-currentToEnd/startToEnd, 0, 1) * 2
			if ratio > 1 {
				ratio = 1
			}
			weight = startToEnd
		}

		weighted += ratio * weight
		total += weight
	}

	if total == 0 {
		return 0
	}
	return weighted / total
}

// jointSimilarity maps the average hip-relative distance over joints to [0, 1].
// ok is false when no joint is visible in both poses.
func jointSimilarity(current, target pose.Pose, joints []int) (similarity float64, ok bool) {
	curHip := pose.HipCenter(current)
	targetHip := pose.HipCenter(target)

	var sum float64
	n := 0
	for _, j := range joints {
		if !bothVisible(current, target, j) {
			continue
		}
		sum += geometry.Distance(hipRelative(current, j, curHip), hipRelative(target, j, targetHip))
		n++
	}

	if n == 0 {
		return 0, false
	}
	avg := sum / float64(n)
	if avg >= similarityRange {
		return 0, true
	}
	return 1 - avg/similarityRange, true
}

// Similarity scores how closely current matches target, in [0, 1].
func Similarity(current, target pose.Pose) float64 {
	s, _ := jointSimilarity(current, target, MainJoints)
	return s
}

// IsCompleted reports whether the shoulders, elbows and knees of current are
// close enough to end. A threshold <= 0 uses DefaultCompletionThreshold.
func IsCompleted(current, end pose.Pose, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultCompletionThreshold
	}
	s, ok := jointSimilarity(current, end, CompletionJoints)
	return ok && s >= threshold
}

// Corrections returns, per landmark, the vector that moves current onto target.
// Landmarks below MinJointConfidence in either pose get the zero vector.
func Corrections(current, target pose.Pose) [pose.NumLandmarks]geometry.Point3 {
	var out [pose.NumLandmarks]geometry.Point3
	for i := range out {
		if bothVisible(current, target, i) {
			out[i] = geometry.Sub(target.Position(i), current.Position(i))
		}
	}
	return out
}

// Scorer scores frames with a configurable completion threshold.
type Scorer struct {
	CompletionThreshold float64
}

// DefaultScorer uses DefaultCompletionThreshold.
var DefaultScorer = Scorer{CompletionThreshold: DefaultCompletionThreshold}

func (s Scorer) threshold() float64 {
	if s.CompletionThreshold <= 0 {
		return DefaultCompletionThreshold
	}
	return s.CompletionThreshold
}

// Analyze validates current and scores it against seg.
func (s Scorer) Analyze(current pose.Pose, seg Segment) (AnalysisResult, error) {
	if err := pose.Check(current); err != nil {
		return AnalysisResult{}, fmt.Errorf("analyze: %w", err)
	}
	return s.score(current, seg.Start, seg.End), nil
}

func (s Scorer) score(current, start, end pose.Pose) AnalysisResult {
	similarity := Similarity(current, end)
	return AnalysisResult{
		Progress:    Progress(current, start, end),
		Similarity:  similarity,
		Completed:   similarity >= s.threshold(),
		Corrections: Corrections(current, end),
		Timestamp:   current.Timestamp,
	}
}

// Analyze scores current against seg with DefaultScorer.
func Analyze(current pose.Pose, seg Segment) (AnalysisResult, error) {
	return DefaultScorer.Analyze(current, seg)
}
