package pose

import (
	"sync"

	"github.com/ayusman/repcoach/internal/geometry"
)

// Source supplies one pose per frame with non-decreasing timestamps.
type Source interface {
	// Next returns the next pose. ok is false once the source is exhausted.
	Next() (p Pose, ok bool, err error)

	// Close releases any resources held by the source.
	Close() error
}

// MockSource is a test implementation of Source that replays preset poses.
type MockSource struct {
	mu    sync.Mutex
	poses []Pose
	pos   int
	err   error
}

// NewMockSource creates a MockSource that replays poses in order.
func NewMockSource(poses ...Pose) *MockSource {
	return &MockSource{poses: poses}
}

// SetPoses replaces the poses that will be returned by Next and rewinds.
func (m *MockSource) SetPoses(poses []Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
	m.pos = 0
}

// SetError sets the error that will be returned by Next.
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Next returns the next preset pose or the configured error.
func (m *MockSource) Next() (Pose, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Pose{}, false, m.err
	}
	if m.pos >= len(m.poses) {
		return Pose{}, false, nil
	}
	p := m.poses[m.pos]
	m.pos++
	return p, true, nil
}

// Close is a no-op for the mock source.
func (m *MockSource) Close() error {
	return nil
}

// StandingPose returns an upright, fully visible pose with shoulders 200 units apart.
// It is useful as a calibration reference in tests and demos.
func StandingPose() Pose {
	var p Pose
	set := func(i int, x, y, z float64) {
		p.Landmarks[i] = Landmark{Position: geometry.Point3{X: x, Y: y, Z: z}, Confidence: 0.95}
	}

	set(Nose, 500, 300, 0)
	set(LeftEyeInner, 510, 290, 0)
	set(LeftEye, 520, 290, 0)
	set(LeftEyeOuter, 530, 290, 0)
	set(RightEyeInner, 490, 290, 0)
	set(RightEye, 480, 290, 0)
	set(RightEyeOuter, 470, 290, 0)
	set(LeftEar, 540, 300, 0)
	set(RightEar, 460, 300, 0)
	set(MouthLeft, 515, 330, 0)
	set(MouthRight, 485, 330, 0)
	set(LeftShoulder, 600, 400, 0)
	set(RightShoulder, 400, 400, 0)
	set(LeftElbow, 630, 550, 0)
	set(RightElbow, 370, 550, 0)
	set(LeftWrist, 640, 700, 0)
	set(RightWrist, 360, 700, 0)
	set(LeftPinky, 645, 740, 0)
	set(RightPinky, 355, 740, 0)
	set(LeftIndex, 640, 745, 0)
	set(RightIndex, 360, 745, 0)
	set(LeftThumb, 630, 730, 0)
	set(RightThumb, 370, 730, 0)
	set(LeftHip, 560, 700, 0)
	set(RightHip, 440, 700, 0)
	set(LeftKnee, 560, 800, 0)
	set(RightKnee, 440, 800, 0)
	set(LeftAnkle, 560, 1000, 0)
	set(RightAnkle, 440, 1000, 0)
	set(LeftHeel, 560, 1020, 0)
	set(RightHeel, 440, 1020, 0)
	set(LeftFootIndex, 570, 1030, 0)
	set(RightFootIndex, 430, 1030, 0)

	p.Timestamp = 1
	return p
}

// SquatPose returns StandingPose with knees pushed down and hips lowered,
// the bottom of a bodyweight squat.
func SquatPose() Pose {
	p := StandingPose()
	move := func(i int, dy float64) {
		p.Landmarks[i].Position.Y += dy
	}

	for _, i := range []int{LeftKnee, RightKnee} {
		move(i, 150)
	}
	for _, i := range []int{LeftHip, RightHip} {
		move(i, 200)
	}
	for i := Nose; i <= RightThumb; i++ {
		move(i, 200)
	}

	p.Timestamp = 2
	return p
}
