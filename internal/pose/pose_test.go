package pose

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/repcoach/internal/geometry"
)

const epsilon = 1e-9

func TestValidate(t *testing.T) {
	t.Run("standing pose is valid", func(t *testing.T) {
		if !Validate(StandingPose()) {
			t.Error("expected standing pose to be valid")
		}
	})

	t.Run("ideal reference is valid", func(t *testing.T) {
		if !Validate(IdealReference()) {
			t.Error("expected ideal reference to be valid")
		}
	})

	t.Run("zero pose is valid", func(t *testing.T) {
		if !Validate(Pose{}) {
			t.Error("expected zero pose to be valid")
		}
	})

	tests := []struct {
		name   string
		mutate func(p *Pose)
	}{
		{"x beyond range", func(p *Pose) { p.Landmarks[Nose].Position.X = 10000.5 }},
		{"negative y beyond range", func(p *Pose) { p.Landmarks[LeftKnee].Position.Y = -20000 }},
		{"NaN z", func(p *Pose) { p.Landmarks[RightAnkle].Position.Z = math.NaN() }},
		{"infinite x", func(p *Pose) { p.Landmarks[LeftHip].Position.X = math.Inf(1) }},
		{"confidence above one", func(p *Pose) { p.Landmarks[LeftWrist].Confidence = 1.01 }},
		{"negative confidence", func(p *Pose) { p.Landmarks[RightWrist].Confidence = -0.1 }},
		{"NaN confidence", func(p *Pose) { p.Landmarks[RightEar].Confidence = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := StandingPose()
			tt.mutate(&p)

			if Validate(p) {
				t.Error("expected pose to be invalid")
			}
			if err := Check(p); !errors.Is(err, ErrInvalidPose) {
				t.Errorf("expected ErrInvalidPose, got %v", err)
			}
		})
	}

	t.Run("boundary coordinate is valid", func(t *testing.T) {
		p := StandingPose()
		p.Landmarks[Nose].Position.X = -MaxCoordinate
		if !Validate(p) {
			t.Error("expected coordinate at the boundary to be valid")
		}
	})
}

func TestCentroid(t *testing.T) {
	var p Pose
	for i := range p.Landmarks {
		p.Landmarks[i].Position = geometry.Point3{X: float64(i), Y: 2, Z: -1}
	}
	// Low confidence landmarks still count.
	p.Landmarks[0].Confidence = 0

	c := Centroid(p)
	if math.Abs(c.X-16) > epsilon || math.Abs(c.Y-2) > epsilon || math.Abs(c.Z+1) > epsilon {
		t.Errorf("expected centroid (16, 2, -1), got %+v", c)
	}
}

func TestHipCenter(t *testing.T) {
	c := HipCenter(StandingPose())
	want := geometry.Point3{X: 500, Y: 700, Z: 0}
	if geometry.Distance(c, want) > epsilon {
		t.Errorf("expected %+v, got %+v", want, c)
	}
}

func TestTransform(t *testing.T) {
	p := StandingPose()
	offset := geometry.Point3{X: 10, Y: -20, Z: 5}

	out := Transform(p, 2, offset)

	t.Run("maps positions", func(t *testing.T) {
		got := out.Landmarks[LeftShoulder].Position
		want := geometry.Point3{X: 1210, Y: 780, Z: 5}
		if geometry.Distance(got, want) > epsilon {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("preserves confidence and timestamp", func(t *testing.T) {
		if out.Landmarks[LeftShoulder].Confidence != p.Landmarks[LeftShoulder].Confidence {
			t.Error("confidence changed")
		}
		if out.Timestamp != p.Timestamp {
			t.Error("timestamp changed")
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		if p.Landmarks[LeftShoulder].Position.X != 600 {
			t.Errorf("input was mutated: %+v", p.Landmarks[LeftShoulder].Position)
		}
	})
}

func TestTranslate(t *testing.T) {
	p := StandingPose()
	out := Translate(p, geometry.Point3{X: 1, Y: 2, Z: 3})

	for i := range p.Landmarks {
		d := geometry.Sub(out.Landmarks[i].Position, p.Landmarks[i].Position)
		if geometry.Distance(d, geometry.Point3{X: 1, Y: 2, Z: 3}) > epsilon {
			t.Fatalf("landmark %s moved by %+v", Name(i), d)
		}
	}
}

func TestRescale(t *testing.T) {
	p := StandingPose()
	origin := HipCenter(p)

	out := Rescale(p, origin, 0.5)

	if geometry.Distance(HipCenter(out), origin) > epsilon {
		t.Error("origin should stay fixed")
	}
	width := geometry.Distance(out.Position(LeftShoulder), out.Position(RightShoulder))
	if math.Abs(width-100) > epsilon {
		t.Errorf("expected shoulder width 100, got %f", width)
	}
}

func TestInterpolate(t *testing.T) {
	start := StandingPose()
	end := SquatPose()
	start.Landmarks[LeftKnee].Confidence = 0.6
	end.Landmarks[LeftKnee].Confidence = 1.0

	t.Run("endpoints", func(t *testing.T) {
		if Interpolate(start, end, 0).Landmarks[LeftKnee].Position != start.Landmarks[LeftKnee].Position {
			t.Error("t=0 should match start")
		}
		if Interpolate(start, end, 1).Landmarks[LeftKnee].Position != end.Landmarks[LeftKnee].Position {
			t.Error("t=1 should match end")
		}
	})

	t.Run("halfway", func(t *testing.T) {
		mid := Interpolate(start, end, 0.5)
		if math.Abs(mid.Landmarks[LeftKnee].Position.Y-875) > epsilon {
			t.Errorf("expected knee y 875, got %f", mid.Landmarks[LeftKnee].Position.Y)
		}
		if math.Abs(mid.Landmarks[LeftKnee].Confidence-0.8) > epsilon {
			t.Errorf("expected averaged confidence 0.8, got %f", mid.Landmarks[LeftKnee].Confidence)
		}
	})

	t.Run("clamps t", func(t *testing.T) {
		if Interpolate(start, end, 4).Landmarks[LeftKnee].Position != end.Landmarks[LeftKnee].Position {
			t.Error("t>1 should clamp to end")
		}
	})
}

func TestCountVisible(t *testing.T) {
	p := StandingPose()
	p.Landmarks[LeftWrist].Confidence = 0.1
	p.Landmarks[RightWrist].Confidence = 0.29

	if got := CountVisible(p, 0.3); got != NumLandmarks-2 {
		t.Errorf("expected %d visible, got %d", NumLandmarks-2, got)
	}
	if got := CountVisible(p, 0.3, LeftWrist, RightWrist, LeftElbow); got != 1 {
		t.Errorf("expected 1 visible, got %d", got)
	}
}

func TestName(t *testing.T) {
	if Name(LeftShoulder) != "left shoulder" {
		t.Errorf("unexpected name %q", Name(LeftShoulder))
	}
	if Name(-1) != "unknown" || Name(NumLandmarks) != "unknown" {
		t.Error("out of range index should be unknown")
	}
}

func TestMockSource(t *testing.T) {
	t.Run("replays poses in order", func(t *testing.T) {
		src := NewMockSource(StandingPose(), SquatPose())

		first, ok, err := src.Next()
		if err != nil || !ok || first.Timestamp != 1 {
			t.Fatalf("unexpected first result: ts=%d ok=%v err=%v", first.Timestamp, ok, err)
		}
		second, ok, err := src.Next()
		if err != nil || !ok || second.Timestamp != 2 {
			t.Fatalf("unexpected second result: ts=%d ok=%v err=%v", second.Timestamp, ok, err)
		}
		if _, ok, _ := src.Next(); ok {
			t.Error("expected source to be exhausted")
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		src := NewMockSource(StandingPose())
		want := errors.New("camera lost")
		src.SetError(want)

		if _, _, err := src.Next(); err != want {
			t.Errorf("expected %v, got %v", want, err)
		}
	})

	t.Run("implements Source interface", func(t *testing.T) {
		var _ Source = (*MockSource)(nil)
	})
}
