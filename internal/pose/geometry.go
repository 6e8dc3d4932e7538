package pose

import "math"

// Distance returns the 2-D Euclidean distance between two landmarks in
// normalized frame coordinates. Depth is deliberately ignored: Z from the
// detector is far noisier than X/Y and all downstream ratios are defined in
// the image plane.
func Distance(a, b Landmark) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Angle returns the interior angle at vertex b in degrees for the segments
// b->a and b->c, in [0,180]. Degenerate input (coincident points) returns 0.
func Angle(a, b, c Landmark) float64 {
	v1x, v1y := a.X-b.X, a.Y-b.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y

	m1 := math.Hypot(v1x, v1y)
	m2 := math.Hypot(v2x, v2y)
	if m1 < 1e-9 || m2 < 1e-9 {
		return 0
	}

	cos := (v1x*v2x + v1y*v2y) / (m1 * m2)
	cos = Clamp(cos, -1, 1)
	return math.Acos(cos) * 180 / math.Pi
}

// Midpoint returns the point halfway between two landmarks.
func Midpoint(a, b Landmark) Landmark {
	return Landmark{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Z:          (a.Z + b.Z) / 2,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
