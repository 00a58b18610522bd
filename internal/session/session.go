// Package session holds one user's calibration and active segment and runs
// every scoring call against them.
//
// A Session is not safe for concurrent use. Callers that share one across
// goroutines must serialize calls that change the calibration or segment.
package session

import (
	"errors"
	"fmt"

	"github.com/ayusman/repcoach/internal/calibration"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/segment"
)

var (
	// ErrInvalidParameter is returned for out-of-range arguments such as a bad segment index.
	ErrInvalidParameter = segment.ErrInvalidParameter

	// ErrNotCalibrated is returned when an operation needs a calibration that has not been set.
	ErrNotCalibrated = errors.New("session not calibrated")

	// ErrSegmentNotSelected is returned when scoring before a segment is selected.
	ErrSegmentNotSelected = errors.New("segment not selected")
)

// KeyposeSource supplies an ordered list of keyposes in the ideal body frame.
type KeyposeSource interface {
	Load(index int) (pose.Pose, error)
	Count() int
}

// Config holds per-session scoring options.
type Config struct {
	// CompletionThreshold is the similarity at which a frame counts as complete.
	CompletionThreshold float64
}

// DefaultConfig returns a Config with the default completion threshold.
func DefaultConfig() Config {
	return Config{CompletionThreshold: segment.DefaultCompletionThreshold}
}

// Info describes the keyposes and segment currently held by a session.
type Info struct {
	Calibrated   bool `json:"calibrated"`
	KeyposeCount int  `json:"keypose_count"`
	HasSegment   bool `json:"has_segment"`
	StartIndex   int  `json:"start_index"`
	EndIndex     int  `json:"end_index"`
}

// Session is the scoring state of one user.
type Session struct {
	scorer segment.Scorer

	cal        calibration.Calibration
	calibrated bool

	// ideal keyposes as loaded, and the same list in the user's body frame.
	ideal    []pose.Pose
	keyposes []pose.Pose

	// raw holds the ideal-frame pair behind seg so it can be rebuilt after recalibration.
	raw        segment.Segment
	seg        segment.Segment
	hasSegment bool
	startIndex int
	endIndex   int
}

// New creates an empty Session.
func New(cfg Config) *Session {
	return &Session{
		scorer:     segment.Scorer{CompletionThreshold: cfg.CompletionThreshold},
		startIndex: -1,
		endIndex:   -1,
	}
}

// Calibrate derives the user's calibration from reference and re-transforms
// any loaded keyposes and the active segment.
func (s *Session) Calibrate(reference pose.Pose) (calibration.Calibration, error) {
	cal, err := calibration.Calibrate(reference)
	if err != nil {
		return calibration.Calibration{}, err
	}
	s.Install(cal)
	return cal, nil
}

// Install makes cal, as returned by calibration.Calibrate, the active
// calibration without the usability check SetCalibration applies.
func (s *Session) Install(cal calibration.Calibration) {
	s.setCalibration(cal)
}

// SetCalibration installs a previously computed calibration.
func (s *Session) SetCalibration(cal calibration.Calibration) error {
	if !calibration.Validate(cal) {
		return fmt.Errorf("%w: calibration is not usable", ErrInvalidParameter)
	}
	s.setCalibration(cal)
	return nil
}

func (s *Session) setCalibration(cal calibration.Calibration) {
	s.cal = cal
	s.calibrated = true

	for i, p := range s.ideal {
		s.keyposes[i] = calibration.Apply(p, cal)
	}
	if s.hasSegment {
		s.seg = segment.Select(cal, s.raw.Start, s.raw.End)
	}
}

// Calibration returns the active calibration and whether one is set.
func (s *Session) Calibration() (calibration.Calibration, bool) {
	return s.cal, s.calibrated
}

// LoadKeyposes reads every keypose from src and transforms it into the user's
// body frame. Any selected segment is cleared.
func (s *Session) LoadKeyposes(src KeyposeSource) error {
	if !s.calibrated {
		return ErrNotCalibrated
	}

	n := src.Count()
	ideal := make([]pose.Pose, n)
	keyposes := make([]pose.Pose, n)
	for i := 0; i < n; i++ {
		p, err := src.Load(i)
		if err != nil {
			return fmt.Errorf("load keypose %d: %w", i, err)
		}
		ideal[i] = p
		keyposes[i] = calibration.Apply(p, s.cal)
	}

	s.ideal = ideal
	s.keyposes = keyposes
	s.clearSegment()
	return nil
}

// SelectSegment makes keyposes start and end the active segment.
// start may equal end.
func (s *Session) SelectSegment(start, end int) error {
	if !s.calibrated {
		return ErrNotCalibrated
	}
	if s.keyposes == nil {
		return fmt.Errorf("%w: no keyposes loaded", ErrSegmentNotSelected)
	}

	n := len(s.keyposes)
	if start < 0 || end < 0 || start >= n || end >= n || start > end {
		return fmt.Errorf("%w: segment %d..%d with %d keyposes", ErrInvalidParameter, start, end, n)
	}

	s.raw = segment.Segment{Start: s.ideal[start], End: s.ideal[end]}
	s.seg = segment.Segment{Start: s.keyposes[start], End: s.keyposes[end]}
	s.hasSegment = true
	s.startIndex = start
	s.endIndex = end
	return nil
}

// SelectPoses makes an explicit ideal-frame pair the active segment.
func (s *Session) SelectPoses(start, end pose.Pose) error {
	if !s.calibrated {
		return ErrNotCalibrated
	}
	if err := pose.Check(start); err != nil {
		return fmt.Errorf("start keypose: %w", err)
	}
	if err := pose.Check(end); err != nil {
		return fmt.Errorf("end keypose: %w", err)
	}

	s.raw = segment.Segment{Start: start, End: end}
	s.seg = segment.Select(s.cal, start, end)
	s.hasSegment = true
	s.startIndex = -1
	s.endIndex = -1
	return nil
}

func (s *Session) clearSegment() {
	s.raw = segment.Segment{}
	s.seg = segment.Segment{}
	s.hasSegment = false
	s.startIndex = -1
	s.endIndex = -1
}

// Segment returns the active segment in the user's body frame.
func (s *Session) Segment() (segment.Segment, error) {
	if !s.hasSegment {
		return segment.Segment{}, ErrSegmentNotSelected
	}
	return s.seg, nil
}

// Keypose returns loaded keypose i in the user's body frame.
func (s *Session) Keypose(i int) (pose.Pose, error) {
	if i < 0 || i >= len(s.keyposes) {
		return pose.Pose{}, fmt.Errorf("%w: keypose %d of %d", ErrInvalidParameter, i, len(s.keyposes))
	}
	return s.keyposes[i], nil
}

// Analyze scores current against the active segment.
func (s *Session) Analyze(current pose.Pose) (segment.AnalysisResult, error) {
	if !s.hasSegment {
		return segment.AnalysisResult{}, ErrSegmentNotSelected
	}
	return s.scorer.Analyze(current, s.seg)
}

// AnalyzeSmart re-anchors the active segment to current before scoring and
// returns the re-anchored target pose.
func (s *Session) AnalyzeSmart(current pose.Pose, mode segment.ScaleMode, screenWidth, screenHeight float64) (segment.AnalysisResult, pose.Pose, error) {
	if !s.hasSegment {
		return segment.AnalysisResult{}, pose.Pose{}, ErrSegmentNotSelected
	}
	return s.scorer.AnalyzeSmart(current, s.seg, mode, screenWidth, screenHeight)
}

// Guide returns the pose t of the way through the active segment.
func (s *Session) Guide(t float64) (pose.Pose, error) {
	if !s.hasSegment {
		return pose.Pose{}, ErrSegmentNotSelected
	}
	return segment.Interpolate(s.seg, t), nil
}

// Info reports the session's loaded keyposes and active segment.
func (s *Session) Info() Info {
	return Info{
		Calibrated:   s.calibrated,
		KeyposeCount: len(s.keyposes),
		HasSegment:   s.hasSegment,
		StartIndex:   s.startIndex,
		EndIndex:     s.endIndex,
	}
}

// Reset drops the calibration, keyposes and segment.
func (s *Session) Reset() {
	scorer := s.scorer
	*s = Session{scorer: scorer}
	s.clearSegment()
}
