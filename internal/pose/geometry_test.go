package pose

import (
	"math"
	"testing"
)

// TestDistanceIgnoresDepth verifies distance is computed in the image plane
// only.
func TestDistanceIgnoresDepth(t *testing.T) {
	a := Landmark{X: 0, Y: 0, Z: 5}
	b := Landmark{X: 3, Y: 4, Z: -5}
	if got := Distance(a, b); math.Abs(got-5) > 1e-9 {
		t.Errorf("Distance = %v, want 5", got)
	}
}

// TestAngle checks interior angles for known point triples.
func TestAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Landmark
		want    float64
	}{
		{"right angle", Landmark{X: 1, Y: 0}, Landmark{}, Landmark{X: 0, Y: 1}, 90},
		{"straight line", Landmark{X: -1, Y: 0}, Landmark{}, Landmark{X: 1, Y: 0}, 180},
		{"folded back", Landmark{X: 1, Y: 0}, Landmark{}, Landmark{X: 1, Y: 0}, 0},
		{"sixty degrees", Landmark{X: 1, Y: 0}, Landmark{}, Landmark{X: 0.5, Y: math.Sqrt(3) / 2}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Angle(tt.a, tt.b, tt.c); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Angle = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAngleDegenerate verifies coincident points return 0 rather than NaN.
func TestAngleDegenerate(t *testing.T) {
	p := Landmark{X: 0.5, Y: 0.5}
	if got := Angle(p, p, Landmark{X: 1, Y: 1}); got != 0 {
		t.Errorf("Angle with coincident vertex = %v, want 0", got)
	}
}

// TestMidpointVisibility verifies the midpoint carries the weaker visibility
// of its endpoints.
func TestMidpointVisibility(t *testing.T) {
	a := Landmark{X: 0, Y: 0, Visibility: 0.9}
	b := Landmark{X: 1, Y: 1, Visibility: 0.2}
	m := Midpoint(a, b)
	if m.X != 0.5 || m.Y != 0.5 {
		t.Errorf("midpoint = (%v,%v), want (0.5,0.5)", m.X, m.Y)
	}
	if m.Visibility != 0.2 {
		t.Errorf("visibility = %v, want 0.2", m.Visibility)
	}
}

// TestFrameAt verifies out-of-range indices are reported rather than panicking.
func TestFrameAt(t *testing.T) {
	f := make(Frame, NumLandmarks)
	f[Nose] = Landmark{X: 0.5, Visibility: 1}

	if lm, ok := f.At(Nose); !ok || lm.X != 0.5 {
		t.Errorf("At(Nose) = %v, %v; want landmark, true", lm, ok)
	}
	if _, ok := f.At(NumLandmarks); ok {
		t.Error("At(NumLandmarks) = ok, want false")
	}
	if _, ok := f.At(-1); ok {
		t.Error("At(-1) = ok, want false")
	}

	short := Frame{{X: 0.1}}
	if _, ok := short.At(RightAnkle); ok {
		t.Error("At on truncated frame = ok, want false")
	}
}

// TestClamp checks both bounds and pass-through.
func TestClamp(t *testing.T) {
	if got := Clamp(-5, 0, 100); got != 0 {
		t.Errorf("Clamp(-5) = %v, want 0", got)
	}
	if got := Clamp(150, 0, 100); got != 100 {
		t.Errorf("Clamp(150) = %v, want 100", got)
	}
	if got := Clamp(42, 0, 100); got != 42 {
		t.Errorf("Clamp(42) = %v, want 42", got)
	}
}
