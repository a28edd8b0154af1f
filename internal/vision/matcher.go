// internal/vision/matcher.go
package vision

import (
	"image"
)

// Match is the best location of a template inside a screen image.
type Match struct {
	Template string
	// Score is the normalized correlation coefficient in [-1, 1].
	Score float64
	// Loc is the top-left corner of the best match, in screen image coordinates.
	Loc image.Point
	// Center is the centre of the matched region.
	Center image.Point
}

// Matcher scores a template against a screen image.
type Matcher interface {
	Match(screen image.Image, tmpl *Template) (Match, error)
}

// Capturer produces the current screen image of the game window.
type Capturer interface {
	Capture() (image.Image, error)
}

// DebugSink receives every capture the classifier makes.
type DebugSink interface {
	Save(label string, img image.Image)
}
