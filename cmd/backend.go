// File: cmd/backend.go
package cmd

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/config"
	"github.com/xkilldash9x/arenabot/internal/device"
	"github.com/xkilldash9x/arenabot/internal/game"
	"github.com/xkilldash9x/arenabot/internal/geom"
	"github.com/xkilldash9x/arenabot/internal/humanoid"
	"github.com/xkilldash9x/arenabot/internal/orchestrator"
	"github.com/xkilldash9x/arenabot/internal/vision"
	"github.com/xkilldash9x/arenabot/internal/vision/opencv"
)

// screen is the window surface the commands need on top of the loop's.
type screen interface {
	orchestrator.Screen
	FromPixels(px geom.Pixel) (geom.Point, bool, error)
	CaptureRegion(r image.Rectangle) (image.Image, error)
	Windows() ([]device.WindowInfo, error)
}

// pointer is the mouse the commands need on top of the loop's.
type pointer interface {
	orchestrator.Input
	Position() geom.Pixel
}

// detector is the classifier surface used by run and detect.
type detector interface {
	orchestrator.Detector
	Capture(ctx context.Context) (image.Image, bool)
	Classify(screen image.Image, prev game.State) game.State
	Scores(screen image.Image) []vision.TemplateScore
}

type stopListener interface {
	Listen(ctx context.Context, onStop func()) error
}

// backend bundles the platform collaborators of one command invocation.
type backend struct {
	screen    screen
	input     pointer
	detector  detector
	templates *vision.TemplateStore
	scheduler humanoid.Scheduler
	seed      uint64
	hotkey    stopListener
	closers   []func() error
}

// Close releases native resources held by the backend.
func (b *backend) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// newBackend is swapped out in tests.
var newBackend = newDeviceBackend

// newDeviceBackend wires the robotgo window and mouse, the OpenCV classifier
// and, when enabled, the humanization layer.
func newDeviceBackend(cfg *config.Config, logger *zap.Logger) (*backend, error) {
	clock := quartz.NewReal()

	var (
		sched humanoid.Scheduler = humanoid.Identity{}
		path  device.PathFunc    = humanoid.Identity{}.Trajectory
		seed                     = cfg.Humanoid.Seed
	)
	if cfg.Humanoid.Enabled {
		profile := humanoid.ProfileFromConfig(cfg.Humanoid)
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("invalid humanoid profile: %w", err)
		}
		r := humanoid.New(profile, cfg.Humanoid.Seed, logger)
		sched, path, seed = r, r.Trajectory, r.Seed()
	}

	window := device.NewWindow(cfg.Window, logger)
	mouse := device.NewMouse(path, cfg.Input.DragSteps, cfg.Timing.ActionPause, clock, logger)

	var opts []vision.Option
	if cfg.Debug.SaveScreenshots {
		sink, err := device.NewScreenshotSink(cfg.Debug.ScreenshotDir, clock, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, vision.WithDebugSink(sink))
	}
	store := vision.NewTemplateStore(cfg.Vision.TemplatesDir, cfg.Vision.MatchConfidence, logger)
	matcher := opencv.NewMatcher()
	classifier := vision.NewClassifier(store, matcher, window, cfg.Vision.StateConfidence, logger, opts...)

	b := &backend{
		screen:    window,
		input:     mouse,
		detector:  classifier,
		templates: store,
		scheduler: sched,
		seed:      seed,
		closers:   []func() error{matcher.Close},
	}
	if cfg.Input.StopKey != "" {
		b.hotkey = device.NewStopHotkey(cfg.Input.StopKey, logger)
	}
	return b, nil
}

// newBot assembles an orchestrator.Bot over the backend.
func newBot(cfg *config.Config, be *backend, logger *zap.Logger) (*orchestrator.Bot, error) {
	layout, err := game.LayoutFromConfig(cfg.Layout)
	if err != nil {
		return nil, err
	}
	positions, err := game.RegistryFromConfig(cfg.UI)
	if err != nil {
		return nil, err
	}
	deps := orchestrator.Deps{
		Screen:    be.screen,
		Input:     be.input,
		Detector:  be.detector,
		Layout:    layout,
		Positions: positions,
		Scheduler: be.scheduler,
		Logger:    logger,
	}
	if be.seed != 0 {
		deps.Rand = rand.New(rand.NewPCG(be.seed, be.seed^0x9e3779b97f4a7c15))
	}
	return orchestrator.New(deps, orchestrator.OptionsFromConfig(cfg))
}
