// Package geometry provides the 3D point arithmetic used by pose calibration and scoring.
package geometry

import "math"

// Point3 represents a 3D coordinate.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns a + b.
func Add(a, b Point3) Point3 {
	return Point3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

// Sub returns a - b.
func Sub(a, b Point3) Point3 {
	return Point3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// Scale multiplies every component of p by s.
func Scale(p Point3, s float64) Point3 {
	return Point3{X: p.X * s, Y: p.Y * s, Z: p.Z * s}
}

// Distance calculates the Euclidean distance between two 3D points.
func Distance(a, b Point3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Distance2D calculates the distance between two points projected onto the XY (screen) plane.
func Distance2D(a, b Point3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Length returns the distance of p from the origin.
func Length(p Point3) float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point3) Point3 {
	return Point3{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}

// Mean returns the average of the given points, or the zero point for an empty slice.
func Mean(points []Point3) Point3 {
	if len(points) == 0 {
		return Point3{}
	}

	var sum Point3
	for _, p := range points {
		sum = Add(sum, p)
	}
	return Scale(sum, 1/float64(len(points)))
}

// Lerp linearly interpolates from a to b. The factor t is clamped to [0, 1].
func Lerp(a, b Point3, t float64) Point3 {
	t = Clamp(t, 0, 1)
	return Point3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// Clamp limits v to the range [lo, hi]. NaN passes through unchanged.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
