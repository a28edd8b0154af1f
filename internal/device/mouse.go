// internal/device/mouse.go
package device

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/geom"
)

// pointer abstracts the OS cursor.
type pointer interface {
	Move(px geom.Pixel)
	Down() error
	Up() error
	Click()
	Position() geom.Pixel
}

type robotgoPointer struct{}

func (robotgoPointer) Move(px geom.Pixel) { robotgo.Move(px.X, px.Y) }
func (robotgoPointer) Down() error { return robotgo.Toggle("left") }
func (robotgoPointer) Up() error { return robotgo.Toggle("left", "up") }
func (robotgoPointer) Click() { robotgo.Click("left") }

func (robotgoPointer) Position() geom.Pixel {
	x, y := robotgo.GetMousePos()
	return geom.Pixel{X: x, Y: y}
}

// PathFunc produces the waypoints of a drag, endpoints included.
type PathFunc func(start, end geom.Pixel, steps int) []geom.Pixel

// Mouse performs clicks and timed drags.
type Mouse struct {
	ptr         pointer
	path        PathFunc
	steps       int
	actionPause time.Duration
	clock       quartz.Clock
	logger      *zap.Logger
}

// NewMouse creates a Mouse backed by robotgo. Every action is followed by
// actionPause.
func NewMouse(path PathFunc, steps int, actionPause time.Duration, clock quartz.Clock, logger *zap.Logger) *Mouse {
	// robotgo sleeps after every mouse call unless told otherwise.
	robotgo.MouseSleep = 0
	return newMouse(robotgoPointer{}, path, steps, actionPause, clock, logger)
}

func newMouse(ptr pointer, path PathFunc, steps int, actionPause time.Duration, clock quartz.Clock, logger *zap.Logger) *Mouse {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if steps < 2 {
		steps = 2
	}
	return &Mouse{
		ptr:         ptr,
		path:        path,
		steps:       steps,
		actionPause: actionPause,
		clock:       clock,
		logger:      logger.Named("mouse"),
	}
}

// Click moves to px and clicks once.
func (m *Mouse) Click(ctx context.Context, px geom.Pixel) error {
	m.ptr.Move(px)
	m.ptr.Click()
	m.logger.Debug("Clicked.", zap.Int("x", px.X), zap.Int("y", px.Y))
	return m.sleep(ctx, m.actionPause)
}

// Drag presses at start, follows the path to end over duration and releases.
// The button is always released, even when ctx is cancelled mid-drag.
func (m *Mouse) Drag(ctx context.Context, start, end geom.Pixel, duration time.Duration) (err error) {
	path := m.path(start, end, m.steps)
	if len(path) < 2 {
		path = []geom.Pixel{start, end}
	}

	m.ptr.Move(start)
	if err := m.ptr.Down(); err != nil {
		return err
	}
	defer func() {
		if upErr := m.ptr.Up(); upErr != nil && err == nil {
			err = upErr
		}
	}()

	step := duration / time.Duration(len(path)-1)
	for _, px := range path[1:] {
		if err := m.sleep(ctx, step); err != nil {
			return err
		}
		m.ptr.Move(px)
	}
	m.logger.Debug("Dragged.",
		zap.Int("from_x", start.X), zap.Int("from_y", start.Y),
		zap.Int("to_x", end.X), zap.Int("to_y", end.Y),
		zap.Duration("duration", duration))
	return m.sleep(ctx, m.actionPause)
}

// Position returns the current cursor location.
func (m *Mouse) Position() geom.Pixel {
	return m.ptr.Position()
}

func (m *Mouse) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := m.clock.NewTimer(d, "mouse")
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
