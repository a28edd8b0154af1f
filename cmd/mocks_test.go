// File: cmd/mocks_test.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/config"
	"github.com/xkilldash9x/arenabot/internal/device"
	"github.com/xkilldash9x/arenabot/internal/game"
	"github.com/xkilldash9x/arenabot/internal/geom"
	"github.com/xkilldash9x/arenabot/internal/humanoid"
	"github.com/xkilldash9x/arenabot/internal/vision"
)

var fakeWindow = image.Rect(0, 0, 1000, 2000)

type fakeScreen struct {
	found    bool
	windows  []device.WindowInfo
	captured []image.Rectangle
}

func (s *fakeScreen) FindWindow() bool { return s.found }
func (s *fakeScreen) Capture() (image.Image, error) { return image.NewRGBA(fakeWindow), nil }
func (s *fakeScreen) BringToFront() error { return nil }

func (s *fakeScreen) ToPixels(p geom.Point) (geom.Pixel, error) {
	return geom.ToPixels(fakeWindow, p), nil
}

func (s *fakeScreen) FromPixels(px geom.Pixel) (geom.Point, bool, error) {
	p, inside := geom.FromPixels(fakeWindow, px)
	return p, inside, nil
}

func (s *fakeScreen) CaptureRegion(r image.Rectangle) (image.Image, error) {
	if !r.In(fakeWindow) {
		return nil, fmt.Errorf("capture region %v is outside the window", r)
	}
	s.captured = append(s.captured, r)
	return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
}

func (s *fakeScreen) Windows() ([]device.WindowInfo, error) { return s.windows, nil }

type fakeDrag struct {
	from, to geom.Pixel
}

// fakePointer reports queued positions first, then pos.
type fakePointer struct {
	mu     sync.Mutex
	pos    geom.Pixel
	queued []geom.Pixel
	clicks []geom.Pixel
	drags  []fakeDrag
}

func (p *fakePointer) Click(_ context.Context, px geom.Pixel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, px)
	return nil
}

func (p *fakePointer) Drag(_ context.Context, from, to geom.Pixel, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drags = append(p.drags, fakeDrag{from: from, to: to})
	return nil
}

func (p *fakePointer) Position() geom.Pixel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queued) > 0 {
		next := p.queued[0]
		p.queued = p.queued[1:]
		return next
	}
	return p.pos
}

func (p *fakePointer) clickedAt(x, y float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	want := geom.ToPixels(fakeWindow, geom.Pt(x, y))
	for _, c := range p.clicks {
		if c == want {
			return true
		}
	}
	return false
}

// fakeDetector alternates: the in-battle check sees the end screen, the
// verification right after the dismissal click does not.
type fakeDetector struct {
	mu    sync.Mutex
	calls int
}

func (d *fakeDetector) DetectState(context.Context, game.State) game.State { return game.MainMenu }

func (d *fakeDetector) IsBattleOver(context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.calls%2 == 1
}

func (d *fakeDetector) Capture(context.Context) (image.Image, bool) {
	return image.NewRGBA(fakeWindow), true
}

func (d *fakeDetector) Classify(image.Image, game.State) game.State { return game.BattleEnded }

func (d *fakeDetector) Scores(image.Image) []vision.TemplateScore {
	return []vision.TemplateScore{
		{Template: vision.TemplateOK, Score: 0.93, Threshold: 0.8, Loaded: true, Matched: true, State: true, Center: image.Pt(550, 1840)},
		{Template: vision.TemplateBattle, Score: 0.75, Threshold: 0.8, Loaded: true, State: true},
		{Template: vision.TemplatePlayAgain},
	}
}

type fakeHotkey struct {
	pressImmediately bool
	exited           chan struct{}
}

func (h *fakeHotkey) Listen(ctx context.Context, onStop func()) error {
	defer close(h.exited)
	if h.pressImmediately {
		onStop()
	}
	<-ctx.Done()
	return nil
}

// fakes is the backend installed for one test.
type fakes struct {
	screen   *fakeScreen
	pointer  *fakePointer
	detector *fakeDetector
	cfg      *config.Config
}

// installFakes swaps the device backend for in-memory fakes.
func installFakes(t *testing.T) *fakes {
	t.Helper()
	f := &fakes{
		screen:   &fakeScreen{found: true},
		pointer:  &fakePointer{},
		detector: &fakeDetector{},
	}
	original := newBackend
	newBackend = func(cfg *config.Config, _ *zap.Logger) (*backend, error) {
		f.cfg = cfg
		return &backend{
			screen:    f.screen,
			input:     f.pointer,
			detector:  f.detector,
			templates: vision.NewTemplateStore(cfg.Vision.TemplatesDir, cfg.Vision.MatchConfidence, nil),
			scheduler: humanoid.Identity{},
		}, nil
	}
	t.Cleanup(func() { newBackend = original })
	return f
}

// fastConfig shrinks every wait so a full game finishes in milliseconds.
const fastConfig = `
logger:
  level: fatal
window:
  front_settle: 1ms
timing:
  deploy_delay: 1ms
  deploy_interval_min: 1ms
  deploy_interval_max: 2ms
  drag_duration: 1ms
  action_pause: 0s
  battle_start_wait: 1ms
  end_screen_settle: 1ms
  menu_settle: 1ms
  between_games: 1ms
battle:
  dismiss_poll_interval: 1ms
input:
  stop_key: ""
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// executeCommand runs a fresh command tree and returns its stdout.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(viper.New())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(bytes.NewBufferString(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
