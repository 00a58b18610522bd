package segment

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/pose"
)

const positionTolerance = 1e-6

func squatSegment() Segment {
	return Segment{Start: pose.StandingPose(), End: pose.SquatPose()}
}

// userAt shrinks p by scale and moves it by offset, like a user standing
// further from the camera and off to one side.
func userAt(p pose.Pose, scale float64, offset geometry.Point3) pose.Pose {
	return pose.Transform(p, scale, offset)
}

func TestTrackable(t *testing.T) {
	t.Run("full body", func(t *testing.T) {
		if !Trackable(pose.StandingPose()) {
			t.Error("expected full body to be trackable")
		}
	})

	t.Run("too few landmarks", func(t *testing.T) {
		var p pose.Pose
		for _, i := range []int{pose.LeftShoulder, pose.RightShoulder, pose.LeftElbow, pose.LeftHip, pose.RightHip, pose.LeftKnee, pose.Nose} {
			p.Landmarks[i].Confidence = 0.9
		}
		if Trackable(p) {
			t.Error("seven landmarks should not be trackable")
		}
	})

	t.Run("arms missing", func(t *testing.T) {
		p := pose.StandingPose()
		for _, i := range []int{pose.LeftElbow, pose.RightElbow, pose.LeftWrist, pose.RightWrist} {
			p.Landmarks[i].Confidence = 0.29
		}
		if Trackable(p) {
			t.Error("two arm landmarks should not be trackable")
		}
	})

	t.Run("legs missing", func(t *testing.T) {
		p := pose.StandingPose()
		for _, i := range []int{pose.LeftKnee, pose.RightKnee, pose.LeftAnkle, pose.RightAnkle} {
			p.Landmarks[i].Confidence = 0
		}
		if Trackable(p) {
			t.Error("two leg landmarks should not be trackable")
		}
	})
}

func TestAnchor(t *testing.T) {
	base := pose.StandingPose()

	tests := []struct {
		name   string
		mode   ScaleMode
		hidden []int
		want   geometry.Point3
		ok     bool
	}{
		{"exercise uses ankle center", Exercise, nil, geometry.Point3{X: 500, Y: 1000}, true},
		{"exercise single left ankle", Exercise, []int{pose.RightAnkle}, geometry.Point3{X: 560, Y: 1000}, true},
		{"exercise single right ankle", Exercise, []int{pose.LeftAnkle}, geometry.Point3{X: 440, Y: 1000}, true},
		{"exercise falls back to hips", Exercise, []int{pose.LeftAnkle, pose.RightAnkle}, geometry.Point3{X: 500, Y: 700}, true},
		{"exercise single hip", Exercise, []int{pose.LeftAnkle, pose.RightAnkle, pose.LeftHip}, geometry.Point3{X: 440, Y: 700}, true},
		{"exercise nothing", Exercise, []int{pose.LeftAnkle, pose.RightAnkle, pose.LeftHip, pose.RightHip}, geometry.Point3{}, false},
		{"measurement uses hip center", Measurement, nil, geometry.Point3{X: 500, Y: 700}, true},
		{"measurement single hip", Measurement, []int{pose.RightHip}, geometry.Point3{X: 560, Y: 700}, true},
		{"measurement ignores ankles", Measurement, []int{pose.LeftHip, pose.RightHip}, geometry.Point3{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			for _, i := range tt.hidden {
				p.Landmarks[i].Confidence = 0.1
			}

			got, ok := Anchor(p, tt.mode)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if geometry.Distance(got, tt.want) > epsilon {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestAnalyzeSmart_Exercise(t *testing.T) {
	seg := squatSegment()
	current := userAt(seg.End, 0.5, geometry.Point3{X: 100, Y: 50})

	res, target, err := AnalyzeSmart(current, seg, Exercise, 1080, 1920)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("target follows user size and position", func(t *testing.T) {
		for i := range target.Landmarks {
			if geometry.Distance(target.Landmarks[i].Position, current.Landmarks[i].Position) > positionTolerance {
				t.Fatalf("%s: target %+v, current %+v", pose.Name(i),
					target.Landmarks[i].Position, current.Landmarks[i].Position)
			}
		}
	})

	t.Run("scores against re-anchored pose", func(t *testing.T) {
		if !res.Reanchored {
			t.Error("expected re-anchored result")
		}
		if math.Abs(res.Similarity-1) > positionTolerance || math.Abs(res.Progress-1) > positionTolerance || !res.Completed {
			t.Errorf("unexpected result %+v", res)
		}
		for i, c := range res.Corrections {
			if geometry.Length(c) > positionTolerance {
				t.Fatalf("%s: expected no correction, got %+v", pose.Name(i), c)
			}
		}
	})

	t.Run("start pose is re-anchored too", func(t *testing.T) {
		startCurrent := userAt(seg.Start, 0.5, geometry.Point3{X: 100, Y: 50})
		res, _, err := AnalyzeSmart(startCurrent, seg, Exercise, 1080, 1920)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// The standing user sits at the re-anchored start, so only the
		// static upper body contributes.
		want := 60.0 / (60.0 + 0.5*500)
		if math.Abs(res.Progress-want) > positionTolerance {
			t.Errorf("expected progress %f, got %f", want, res.Progress)
		}
	})
}

func TestAnalyzeSmart_Measurement(t *testing.T) {
	seg := squatSegment()
	current := userAt(seg.End, 0.5, geometry.Point3{X: 100, Y: 50})
	const screenWidth = 1000.0

	res, target, err := AnalyzeSmart(current, seg, Measurement, screenWidth, 1920)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("x is centered on screen", func(t *testing.T) {
		var xs []geometry.Point3
		for _, lm := range target.Landmarks {
			if lm.Confidence >= MinVisibleConfidence {
				xs = append(xs, lm.Position)
			}
		}
		if mean := geometry.Mean(xs).X; math.Abs(mean-screenWidth/2) > positionTolerance {
			t.Errorf("expected mean x %f, got %f", screenWidth/2, mean)
		}
	})

	t.Run("y and z follow the user", func(t *testing.T) {
		for i := range target.Landmarks {
			if math.Abs(target.Landmarks[i].Position.Y-current.Landmarks[i].Position.Y) > positionTolerance {
				t.Fatalf("%s: target y %f, current y %f", pose.Name(i),
					target.Landmarks[i].Position.Y, current.Landmarks[i].Position.Y)
			}
			if math.Abs(target.Landmarks[i].Position.Z-current.Landmarks[i].Position.Z) > positionTolerance {
				t.Fatalf("%s: target z differs", pose.Name(i))
			}
		}
	})

	t.Run("size matches the user", func(t *testing.T) {
		got := geometry.Distance(target.Position(pose.LeftShoulder), target.Position(pose.RightShoulder))
		if math.Abs(got-100) > positionTolerance {
			t.Errorf("expected shoulder width 100, got %f", got)
		}
	})

	t.Run("hip relative scores ignore x lock", func(t *testing.T) {
		if !res.Reanchored || math.Abs(res.Similarity-1) > positionTolerance {
			t.Errorf("unexpected result %+v", res)
		}
	})
}

func TestAnalyzeSmart_Fallbacks(t *testing.T) {
	seg := squatSegment()

	t.Run("untrackable body returns empty result and stored target", func(t *testing.T) {
		current := pose.StandingPose()
		for i := range current.Landmarks {
			current.Landmarks[i].Confidence = 0.2
		}
		current.Landmarks[pose.LeftKnee].Position.Y = 123

		res, target, err := AnalyzeSmart(current, seg, Exercise, 1080, 1920)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Progress != 0 || res.Similarity != 0 || res.Completed || res.Reanchored {
			t.Errorf("expected empty result, got %+v", res)
		}
		if target != seg.End {
			t.Error("expected stored end pose as target")
		}
	})

	t.Run("low target shoulder confidence scores stored segment", func(t *testing.T) {
		weak := seg
		weak.End.Landmarks[pose.LeftShoulder].Confidence = 0.45
		current := userAt(seg.End, 0.5, geometry.Point3{X: 100, Y: 50})

		res, target, err := AnalyzeSmart(current, weak, Exercise, 1080, 1920)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		plain, _ := Analyze(current, weak)
		if res != plain {
			t.Errorf("expected plain analysis %+v, got %+v", plain, res)
		}
		if target != weak.End {
			t.Error("expected stored end pose as target")
		}
	})

	t.Run("measurement without left ankle scores stored segment", func(t *testing.T) {
		current := userAt(seg.End, 0.5, geometry.Point3{X: 100, Y: 50})
		current.Landmarks[pose.LeftAnkle].Confidence = 0

		res, target, err := AnalyzeSmart(current, seg, Measurement, 1080, 1920)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Reanchored {
			t.Error("expected fallback")
		}
		if target != seg.End {
			t.Error("expected stored end pose as target")
		}
	})

	t.Run("start without anchor reuses end anchor", func(t *testing.T) {
		noAnchor := seg
		for _, i := range []int{pose.LeftAnkle, pose.RightAnkle, pose.LeftHip, pose.RightHip} {
			noAnchor.Start.Landmarks[i].Confidence = 0
		}
		current := userAt(seg.End, 0.5, geometry.Point3{X: 100, Y: 50})

		res, _, err := AnalyzeSmart(current, noAnchor, Exercise, 1080, 1920)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Reanchored {
			t.Error("expected re-anchored result")
		}
	})
}

func TestAnalyzeSmart_Errors(t *testing.T) {
	seg := squatSegment()

	t.Run("invalid pose", func(t *testing.T) {
		bad := pose.StandingPose()
		bad.Landmarks[pose.LeftKnee].Confidence = -1
		_, _, err := AnalyzeSmart(bad, seg, Exercise, 1080, 1920)
		if !errors.Is(err, pose.ErrInvalidPose) {
			t.Errorf("expected ErrInvalidPose, got %v", err)
		}
	})

	t.Run("negative screen size", func(t *testing.T) {
		_, _, err := AnalyzeSmart(pose.StandingPose(), seg, Measurement, -1, 1920)
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter, got %v", err)
		}
		_, _, err = AnalyzeSmart(pose.StandingPose(), seg, Measurement, 1080, -5)
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter, got %v", err)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, _, err := AnalyzeSmart(pose.StandingPose(), seg, ScaleMode(7), 1080, 1920)
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter, got %v", err)
		}
	})
}

func TestScaleMode(t *testing.T) {
	for _, m := range []ScaleMode{Measurement, Exercise} {
		text, err := m.MarshalText()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var back ScaleMode
		if err := back.UnmarshalText(text); err != nil || back != m {
			t.Errorf("round trip of %v gave %v, %v", m, back, err)
		}
	}

	if _, err := ParseScaleMode("yoga"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}
