package srt

import "math"

// Point is a 2D position in frame pixels.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DefaultMinSegment is the ray length, in pixels, below which an angle is
// considered degenerate.
const DefaultMinSegment = 1.0

// Angle returns the angle at p2 between the rays p2→p1 and p2→p3, in
// degrees within [0, 360]. It returns exactly 0 when any coordinate is not
// finite or either ray is shorter than DefaultMinSegment.
func Angle(p1, p2, p3 Point) float64 {
	return AngleWithMin(p1, p2, p3, DefaultMinSegment)
}

// AngleWithMin is Angle with an explicit minimum ray length.
func AngleWithMin(p1, p2, p3 Point, minSegment float64) float64 {
	for _, v := range [...]float64{p1.X, p1.Y, p2.X, p2.Y, p3.X, p3.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
	}
	if Distance(p1, p2) < minSegment || Distance(p2, p3) < minSegment {
		return 0
	}

	a1 := math.Atan2(p1.Y-p2.Y, p1.X-p2.X)
	a3 := math.Atan2(p3.Y-p2.Y, p3.X-p2.X)
	return math.Abs((a3 - a1) * 180 / math.Pi)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
