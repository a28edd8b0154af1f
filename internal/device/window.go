// internal/device/window.go
package device

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/config"
	"github.com/xkilldash9x/arenabot/internal/geom"
)

// ErrNoWindow is returned by operations that need a located window before
// FindWindow has succeeded.
var ErrNoWindow = errors.New("game window not located")

// windowSystem abstracts the desktop so the lookup logic can be tested.
type windowSystem interface {
	Pids() ([]int, error)
	Title(pid int) string
	Bounds(pid int) image.Rectangle
	Activate(pid int) error
	Capture(r image.Rectangle) (image.Image, error)
}

// robotgoSystem is the production windowSystem.
type robotgoSystem struct{}

func (robotgoSystem) Pids() ([]int, error) { return robotgo.Pids() }

func (robotgoSystem) Title(pid int) string { return robotgo.GetTitle(pid) }

func (robotgoSystem) Bounds(pid int) image.Rectangle {
	x, y, w, h := robotgo.GetBounds(pid)
	return image.Rect(x, y, x+w, y+h)
}

func (robotgoSystem) Activate(pid int) error { return robotgo.ActivePid(pid) }

func (robotgoSystem) Capture(r image.Rectangle) (image.Image, error) {
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Window locates the mirrored device window by title and captures it.
type Window struct {
	title   string
	exclude []string
	sys     windowSystem
	logger  *zap.Logger

	mu     sync.RWMutex
	pid    int
	bounds image.Rectangle
	found  bool
}

// NewWindow creates a Window for the configured title.
func NewWindow(cfg config.WindowConfig, logger *zap.Logger) *Window {
	return newWindow(cfg, robotgoSystem{}, logger)
}

func newWindow(cfg config.WindowConfig, sys windowSystem, logger *zap.Logger) *Window {
	if logger == nil {
		logger = zap.NewNop()
	}
	exclude := make([]string, 0, len(cfg.ExcludeTitles))
	for _, e := range cfg.ExcludeTitles {
		exclude = append(exclude, strings.ToLower(e))
	}
	return &Window{
		title:   strings.ToLower(cfg.Title),
		exclude: exclude,
		sys:     sys,
		logger:  logger.Named("window"),
	}
}

// matches reports whether a window title belongs to the game mirror and not
// to, say, the terminal that launched it.
func (w *Window) matches(title string) bool {
	t := strings.ToLower(title)
	if !strings.Contains(t, w.title) {
		return false
	}
	for _, e := range w.exclude {
		if strings.Contains(t, e) {
			return false
		}
	}
	return true
}

// FindWindow scans the running processes for a window whose title matches.
// It records the window bounds and reports whether one was found.
func (w *Window) FindWindow() bool {
	pids, err := w.sys.Pids()
	if err != nil {
		w.logger.Error("Failed to enumerate processes.", zap.Error(err))
		return false
	}
	for _, pid := range pids {
		title := w.sys.Title(pid)
		if title == "" || !w.matches(title) {
			continue
		}
		bounds := w.sys.Bounds(pid)
		if bounds.Empty() {
			w.logger.Debug("Skipping window with empty bounds.", zap.Int("pid", pid), zap.String("title", title))
			continue
		}
		w.mu.Lock()
		w.pid, w.bounds, w.found = pid, bounds, true
		w.mu.Unlock()
		w.logger.Info("Found game window.",
			zap.Int("pid", pid),
			zap.String("title", title),
			zap.Int("x", bounds.Min.X), zap.Int("y", bounds.Min.Y),
			zap.Int("width", bounds.Dx()), zap.Int("height", bounds.Dy()))
		return true
	}
	w.logger.Warn("Game window not found.", zap.String("title", w.title))
	return false
}

// Bounds returns the window rectangle in screen pixels.
func (w *Window) Bounds() (image.Rectangle, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.found {
		return image.Rectangle{}, ErrNoWindow
	}
	return w.bounds, nil
}

// ToPixels converts a normalized window position to absolute screen pixels.
func (w *Window) ToPixels(p geom.Point) (geom.Pixel, error) {
	b, err := w.Bounds()
	if err != nil {
		return geom.Pixel{}, err
	}
	return geom.ToPixels(b, p), nil
}

// FromPixels converts an absolute screen pixel to a normalized position. The
// boolean is false when the pixel is outside the window.
func (w *Window) FromPixels(px geom.Pixel) (geom.Point, bool, error) {
	b, err := w.Bounds()
	if err != nil {
		return geom.Point{}, false, err
	}
	p, inside := geom.FromPixels(b, px)
	return p, inside, nil
}

// BringToFront raises the window.
func (w *Window) BringToFront() error {
	w.mu.RLock()
	pid, found := w.pid, w.found
	w.mu.RUnlock()
	if !found {
		return ErrNoWindow
	}
	if err := w.sys.Activate(pid); err != nil {
		return fmt.Errorf("failed to activate window (pid %d): %w", pid, err)
	}
	return nil
}

// Capture takes a screenshot of the window region.
func (w *Window) Capture() (image.Image, error) {
	b, err := w.Bounds()
	if err != nil {
		return nil, err
	}
	img, err := w.sys.Capture(b)
	if err != nil {
		return nil, fmt.Errorf("failed to capture window region %v: %w", b, err)
	}
	return img, nil
}

// CaptureRegion takes a screenshot of r, given in screen pixels. The region
// must lie inside the located window.
func (w *Window) CaptureRegion(r image.Rectangle) (image.Image, error) {
	b, err := w.Bounds()
	if err != nil {
		return nil, err
	}
	r = r.Canon()
	if r.Empty() {
		return nil, fmt.Errorf("empty capture region %v", r)
	}
	if !r.In(b) {
		return nil, fmt.Errorf("capture region %v is outside the window %v", r, b)
	}
	img, err := w.sys.Capture(r)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region %v: %w", r, err)
	}
	return img, nil
}

// WindowInfo describes one titled window on the desktop.
type WindowInfo struct {
	PID    int
	Title  string
	Bounds image.Rectangle
	// Match is true when FindWindow would accept the window.
	Match bool
}

// Windows lists every titled window in process order.
func (w *Window) Windows() ([]WindowInfo, error) {
	pids, err := w.sys.Pids()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}
	var out []WindowInfo
	for _, pid := range pids {
		title := w.sys.Title(pid)
		if title == "" {
			continue
		}
		bounds := w.sys.Bounds(pid)
		out = append(out, WindowInfo{
			PID:    pid,
			Title:  title,
			Bounds: bounds,
			Match:  w.matches(title) && !bounds.Empty(),
		})
	}
	return out, nil
}
