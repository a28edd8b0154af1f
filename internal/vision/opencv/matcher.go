// internal/vision/opencv/matcher.go
package opencv

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/xkilldash9x/arenabot/internal/vision"
)

// ErrTemplateTooLarge is returned when the template does not fit inside the screen.
var ErrTemplateTooLarge = errors.New("template larger than screen")

// Matcher scores templates with normalized cross-correlation (TM_CCOEFF_NORMED).
// Converted template mats are cached by name.
type Matcher struct {
	mu    sync.Mutex
	cache map[string]gocv.Mat
}

var _ vision.Matcher = (*Matcher)(nil)

// NewMatcher creates a matcher. Close releases the cached mats.
func NewMatcher() *Matcher {
	return &Matcher{cache: make(map[string]gocv.Mat)}
}

// Match finds the best location of tmpl inside screen.
func (m *Matcher) Match(screen image.Image, tmpl *vision.Template) (vision.Match, error) {
	sb, tb := screen.Bounds(), tmpl.Image.Bounds()
	if tb.Dx() > sb.Dx() || tb.Dy() > sb.Dy() {
		return vision.Match{}, fmt.Errorf("%w: %s is %dx%d, screen is %dx%d",
			ErrTemplateTooLarge, tmpl.Name, tb.Dx(), tb.Dy(), sb.Dx(), sb.Dy())
	}

	tmplMat, err := m.templateMat(tmpl)
	if err != nil {
		return vision.Match{}, err
	}

	screenMat, err := gocv.ImageToMatRGB(screen)
	if err != nil {
		return vision.Match{}, fmt.Errorf("failed to convert screen to Mat: %w", err)
	}
	defer screenMat.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(screenMat, tmplMat, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		return vision.Match{}, fmt.Errorf("template match for %s produced no result", tmpl.Name)
	}

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	return vision.Match{
		Template: tmpl.Name,
		Score:    float64(maxVal),
		Loc:      maxLoc,
		Center:   maxLoc.Add(image.Pt(tb.Dx()/2, tb.Dy()/2)),
	}, nil
}

func (m *Matcher) templateMat(tmpl *vision.Template) (gocv.Mat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mat, ok := m.cache[tmpl.Name]; ok {
		return mat, nil
	}
	mat, err := gocv.ImageToMatRGB(tmpl.Image)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert template %s to Mat: %w", tmpl.Name, err)
	}
	m.cache[tmpl.Name] = mat
	return mat, nil
}

// Close releases every cached template mat.
func (m *Matcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, mat := range m.cache {
		mat.Close()
		delete(m.cache, name)
	}
	return nil
}
