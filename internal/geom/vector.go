// internal/geom/vector.go
package geom

import "math"

// Point is a resolution independent position. Both axes are fractions of the
// window size, so (0,0) is the top-left corner and (1,1) the bottom-right.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns the vector sum of p and other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the vector difference of p and other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Mul returns p scaled by the scalar factor.
func (p Point) Mul(scalar float64) Point {
	return Point{X: p.X * scalar, Y: p.Y * scalar}
}

// Dist calculates the Euclidean distance between p and other.
func (p Point) Dist(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Lerp interpolates between p and other. t=0 yields p, t=1 yields other.
func (p Point) Lerp(other Point, t float64) Point {
	return p.Add(other.Sub(p).Mul(t))
}

// Normal returns the unit vector perpendicular to p, or the zero vector if p
// has no length.
func (p Point) Normal() Point {
	mag := math.Hypot(p.X, p.Y)
	if mag < 1e-9 {
		return Point{}
	}
	return Point{X: -p.Y / mag, Y: p.X / mag}
}

// InUnit reports whether both coordinates lie within [0,1].
func (p Point) InUnit() bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

// Clamp limits each axis of p to [lo, hi].
func (p Point) Clamp(lo, hi float64) Point {
	return Point{X: clamp(p.X, lo, hi), Y: clamp(p.Y, lo, hi)}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
