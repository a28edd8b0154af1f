// internal/orchestrator/mocks_test.go
package orchestrator

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/arenabot/internal/config"
	"github.com/xkilldash9x/arenabot/internal/game"
	"github.com/xkilldash9x/arenabot/internal/geom"
	"github.com/xkilldash9x/arenabot/internal/humanoid"
)

// testWindow is the simulated window rectangle in screen pixels.
var testWindow = image.Rect(0, 0, 1000, 2000)

type fakeScreen struct {
	found     bool
	findCalls int
}

func (s *fakeScreen) FindWindow() bool {
	s.findCalls++
	return s.found
}

func (s *fakeScreen) Capture() (image.Image, error) {
	return image.NewRGBA(testWindow), nil
}

func (s *fakeScreen) ToPixels(p geom.Point) (geom.Pixel, error) {
	return geom.ToPixels(testWindow, p), nil
}

func (s *fakeScreen) BringToFront() error { return nil }

type drag struct {
	from, to geom.Pixel
	duration time.Duration
}

type fakeInput struct {
	mu     sync.Mutex
	clicks []geom.Pixel
	drags  []drag
	err    error
}

func (in *fakeInput) Click(_ context.Context, px geom.Pixel) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.clicks = append(in.clicks, px)
	return in.err
}

func (in *fakeInput) Drag(_ context.Context, from, to geom.Pixel, d time.Duration) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.drags = append(in.drags, drag{from: from, to: to, duration: d})
	return in.err
}

func (in *fakeInput) clicksAt(p geom.Point) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	want := geom.ToPixels(testWindow, p)
	n := 0
	for _, c := range in.clicks {
		if c == want {
			n++
		}
	}
	return n
}

// fakeDetector reports the battle as over whenever it is asked during a
// battle and overInBattle is set. After a battle ends, the first `lingering`
// checks still see the end screen.
type fakeDetector struct {
	machine      *game.Machine
	overInBattle bool
	lingering    int

	battleOverCalls int
	detectCalls     int
}

func (d *fakeDetector) DetectState(_ context.Context, _ game.State) game.State {
	d.detectCalls++
	return game.MainMenu
}

func (d *fakeDetector) IsBattleOver(_ context.Context) bool {
	d.battleOverCalls++
	if d.machine.State() == game.InBattle {
		return d.overInBattle
	}
	if d.lingering > 0 {
		d.lingering--
		return true
	}
	return false
}

// advancingSleeper records every sleep and moves the mock clock forward
// instead of blocking.
type advancingSleeper struct {
	clock   *quartz.Mock
	slept   []time.Duration
	onSleep func(n int)
}

func (s *advancingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.slept = append(s.slept, d)
	s.clock.Advance(d).MustWait(ctx)
	if s.onSleep != nil {
		s.onSleep(len(s.slept))
	}
	return ctx.Err()
}

func (s *advancingSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range s.slept {
		sum += d
	}
	return sum
}

// pausingScheduler draws the same think pause before every action.
type pausingScheduler struct {
	humanoid.Identity
	pause time.Duration
}

func (s pausingScheduler) NextPause() humanoid.Pause {
	return humanoid.Pause{Kind: humanoid.PauseThink, Duration: s.pause}
}

func (s *advancingSleeper) count(d time.Duration) int {
	n := 0
	for _, got := range s.slept {
		if got == d {
			n++
		}
	}
	return n
}

type harness struct {
	bot      *Bot
	screen   *fakeScreen
	input    *fakeInput
	detector *fakeDetector
	clock    *quartz.Mock
	sleeper  *advancingSleeper
	logs     *observer.ObservedLogs
	layout   game.Layout
}

// testOptions returns the stock options with humanization off.
func testOptions() Options {
	opts := OptionsFromConfig(config.NewDefaultConfig())
	opts.Humanize = false
	return opts
}

func newHarness(t *testing.T, opts Options, sched humanoid.Scheduler) *harness {
	t.Helper()
	cfg := config.NewDefaultConfig()
	layout, err := game.LayoutFromConfig(cfg.Layout)
	require.NoError(t, err)
	positions, err := game.RegistryFromConfig(cfg.UI)
	require.NoError(t, err)

	clock := quartz.NewMock(t)
	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{
		screen:   &fakeScreen{found: true},
		input:    &fakeInput{},
		detector: &fakeDetector{overInBattle: true},
		clock:    clock,
		sleeper:  &advancingSleeper{clock: clock},
		logs:     logs,
		layout:   layout,
	}
	h.bot, err = New(Deps{
		Screen:    h.screen,
		Input:     h.input,
		Detector:  h.detector,
		Layout:    layout,
		Positions: positions,
		Scheduler: sched,
		Clock:     clock,
		Sleeper:   h.sleeper,
		Logger:    zap.New(core),
	}, opts)
	require.NoError(t, err)
	h.detector.machine = h.bot.Machine()
	return h
}
