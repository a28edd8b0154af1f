// internal/geom/rect.go
package geom

import (
	"fmt"
	"image"
)

// Pixel is an absolute screen coordinate.
type Pixel struct {
	X, Y int
}

// Area is an axis aligned rectangle in normalized coordinates.
type Area struct {
	Left, Top, Right, Bottom float64
}

// Contains reports whether p lies inside the area, edges included.
func (a Area) Contains(p Point) bool {
	return p.X >= a.Left && p.X <= a.Right && p.Y >= a.Top && p.Y <= a.Bottom
}

// Clamp moves p onto the nearest point inside the area.
func (a Area) Clamp(p Point) Point {
	return Point{X: clamp(p.X, a.Left, a.Right), Y: clamp(p.Y, a.Top, a.Bottom)}
}

// Validate checks that the area is non-empty and inside the unit square.
func (a Area) Validate() error {
	if a.Left >= a.Right || a.Top >= a.Bottom {
		return fmt.Errorf("area is empty: %+v", a)
	}
	if !Pt(a.Left, a.Top).InUnit() || !Pt(a.Right, a.Bottom).InUnit() {
		return fmt.Errorf("area must lie within [0,1]: %+v", a)
	}
	return nil
}

// ToPixels converts a normalized point to absolute screen pixels relative to
// the window rectangle. Fractions are truncated toward the window origin.
func ToPixels(window image.Rectangle, p Point) Pixel {
	return Pixel{
		X: window.Min.X + int(float64(window.Dx())*p.X),
		Y: window.Min.Y + int(float64(window.Dy())*p.Y),
	}
}

// FromPixels is the inverse of ToPixels. The boolean is false when the pixel
// lies outside the window.
func FromPixels(window image.Rectangle, px Pixel) (Point, bool) {
	if window.Dx() <= 0 || window.Dy() <= 0 {
		return Point{}, false
	}
	inside := px.X >= window.Min.X && px.X <= window.Max.X && px.Y >= window.Min.Y && px.Y <= window.Max.Y
	return Point{
		X: float64(px.X-window.Min.X) / float64(window.Dx()),
		Y: float64(px.Y-window.Min.Y) / float64(window.Dy()),
	}, inside
}
