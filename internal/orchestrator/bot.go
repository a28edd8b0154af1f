// File: internal/orchestrator/bot.go
// Description: The control loop that drives the game. It is injected with the
// capture, input and detection collaborators via interfaces so the whole loop
// can run against stubs and a simulated clock.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/arenabot/internal/config"
	"github.com/xkilldash9x/arenabot/internal/game"
	"github.com/xkilldash9x/arenabot/internal/geom"
	"github.com/xkilldash9x/arenabot/internal/humanoid"
)

// ErrWindowNotFound is returned when the game window cannot be located.
// Nothing is automated in that case.
var ErrWindowNotFound = errors.New("game window not found")

// errCeilingReached aborts a deploy that would run past the safety ceiling.
var errCeilingReached = errors.New("battle safety ceiling reached")

// Screen is the capture collaborator.
type Screen interface {
	FindWindow() bool
	Capture() (image.Image, error)
	ToPixels(p geom.Point) (geom.Pixel, error)
	BringToFront() error
}

// Input is the pointer collaborator.
type Input interface {
	Click(ctx context.Context, px geom.Pixel) error
	Drag(ctx context.Context, start, end geom.Pixel, duration time.Duration) error
}

// Detector answers the two questions the loop asks of the screen.
type Detector interface {
	DetectState(ctx context.Context, prev game.State) game.State
	IsBattleOver(ctx context.Context) bool
}

// Options are the loop tunables.
type Options struct {
	// Games is the number of games to play. Zero plays forever.
	Games     int
	Humanize  bool
	Randomize bool

	DeployDelay       time.Duration
	DeployIntervalMin time.Duration
	DeployIntervalMax time.Duration
	DragDuration      time.Duration
	FrontSettle       time.Duration
	MenuSettle        time.Duration
	BattleStartWait   time.Duration
	EndScreenSettle   time.Duration
	BetweenGames      time.Duration

	SafetyCeiling       time.Duration
	SkipInitialChecks   int
	CheckEvery          int
	DismissRetries      int
	DismissPollInterval time.Duration
}

// OptionsFromConfig builds loop options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Games:               cfg.Battle.Games,
		Humanize:            cfg.Humanoid.Enabled,
		Randomize:           cfg.Battle.Randomize,
		DeployDelay:         cfg.Timing.DeployDelay,
		DeployIntervalMin:   cfg.Timing.DeployIntervalMin,
		DeployIntervalMax:   cfg.Timing.DeployIntervalMax,
		DragDuration:        cfg.Timing.DragDuration,
		FrontSettle:         cfg.Window.FrontSettle,
		MenuSettle:          cfg.Timing.MenuSettle,
		BattleStartWait:     cfg.Timing.BattleStartWait,
		EndScreenSettle:     cfg.Timing.EndScreenSettle,
		BetweenGames:        cfg.Timing.BetweenGames,
		SafetyCeiling:       cfg.Battle.SafetyCeiling,
		SkipInitialChecks:   cfg.Battle.SkipInitialChecks,
		CheckEvery:          cfg.Battle.CheckEvery,
		DismissRetries:      cfg.Battle.DismissRetries,
		DismissPollInterval: cfg.Battle.DismissPollInterval,
	}
}

// Deps are the collaborators of a Bot. Clock, Sleeper, Scheduler and Rand
// are optional.
type Deps struct {
	Screen    Screen
	Input     Input
	Detector  Detector
	Layout    game.Layout
	Positions *game.Registry
	Scheduler humanoid.Scheduler
	Clock     quartz.Clock
	Sleeper   Sleeper
	Rand      *rand.Rand
	Logger    *zap.Logger
}

// Bot runs the game loop. A Bot is driven from a single goroutine; only Stop
// may be called concurrently.
type Bot struct {
	opts      Options
	screen    Screen
	input     Input
	detector  Detector
	layout    game.Layout
	positions *game.Registry
	sched     humanoid.Scheduler
	selector  *game.Selector
	machine   *game.Machine
	clock     quartz.Clock
	sleeper   Sleeper
	limiter   *rate.Limiter
	rng       *rand.Rand
	logger    *zap.Logger

	stop        atomic.Bool
	windowReady bool

	session *game.Session
	battles int
	summary *Summary
}

// New creates a Bot. When humanization is disabled the Identity policy is
// used regardless of the supplied scheduler.
func New(deps Deps, opts Options) (*Bot, error) {
	if deps.Screen == nil || deps.Input == nil || deps.Detector == nil || deps.Positions == nil {
		return nil, fmt.Errorf("cannot initialize bot with nil dependencies")
	}
	if err := deps.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	if opts.CheckEvery <= 0 {
		return nil, fmt.Errorf("check interval must be positive, got %d", opts.CheckEvery)
	}
	if opts.SafetyCeiling <= 0 {
		return nil, fmt.Errorf("safety ceiling must be positive, got %s", opts.SafetyCeiling)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	sleeper := deps.Sleeper
	if sleeper == nil {
		sleeper = NewClockSleeper(clock)
	}
	sched := deps.Scheduler
	if !opts.Humanize || sched == nil {
		sched = humanoid.Identity{}
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	poll := opts.DismissPollInterval
	if poll <= 0 {
		poll = time.Second
	}

	b := &Bot{
		opts:      opts,
		screen:    deps.Screen,
		input:     deps.Input,
		detector:  deps.Detector,
		layout:    deps.Layout,
		positions: deps.Positions,
		sched:     sched,
		selector:  game.NewSelector(deps.Layout, opts.Randomize, rng),
		machine:   game.NewMachine(clock),
		clock:     clock,
		sleeper:   sleeper,
		limiter:   rate.NewLimiter(rate.Every(poll), 1),
		rng:       rng,
		logger:    logger.Named("orchestrator"),
	}
	b.machine.Subscribe(b.onTransition)
	b.summary = newSummary(uuid.New(), clock.Now())
	return b, nil
}

// Machine exposes the state machine so callers can observe transitions.
func (b *Bot) Machine() *game.Machine { return b.machine }

// Stop asks the loop to finish at the next outer iteration.
func (b *Bot) Stop() { b.stop.Store(true) }

func (b *Bot) stopRequested() bool { return b.stop.Load() }

// onTransition maintains the battle session and the per-battle records.
func (b *Bot) onTransition(from, to game.State) {
	b.logger.Debug("State transition.", zap.Stringer("from", from), zap.Stringer("to", to))

	if from == game.InBattle && to == game.BattleEnded && b.session != nil {
		b.summary.recordBattle(b.session, b.clock.Since(b.session.Started))
	}
	if from == game.BattleEnded {
		b.session = nil
	}
	if to == game.InBattle {
		b.battles++
		b.session = game.NewSession(b.battles, b.machine.BattleStarted())
		b.logger.Info("Battle started.",
			zap.Int("battle", b.session.Seq),
			zap.String("session_id", b.session.ID.String()))
	}
}

// transition applies a state change. Illegal edges are logged and ignored.
func (b *Bot) transition(to game.State) {
	if _, err := b.machine.Transition(to); err != nil {
		b.logger.Error("Rejected state transition.", zap.Error(err))
	}
}

// ensureWindow locates and raises the game window once per Bot.
func (b *Bot) ensureWindow(ctx context.Context) error {
	if b.windowReady {
		return nil
	}
	if !b.screen.FindWindow() {
		return ErrWindowNotFound
	}
	if err := b.screen.BringToFront(); err != nil {
		b.logger.Warn("Could not bring game window to front.", zap.Error(err))
	}
	b.windowReady = true
	return b.sleep(ctx, b.opts.FrontSettle)
}

// battleRemaining is the time left before the safety ceiling. ok is false
// outside a battle.
func (b *Bot) battleRemaining() (time.Duration, bool) {
	if b.machine.State() != game.InBattle {
		return 0, false
	}
	return b.opts.SafetyCeiling - b.machine.BattleElapsed(), true
}

// sleep waits for d, returning early with the context error. Inside a battle
// no wait runs past the safety ceiling.
func (b *Bot) sleep(ctx context.Context, d time.Duration) error {
	if rem, ok := b.battleRemaining(); ok && d > rem {
		d = rem
	}
	if d <= 0 {
		return ctx.Err()
	}
	return b.sleeper.Sleep(ctx, d)
}

// settle waits for a nominal UI settle period, jittered when humanized.
func (b *Bot) settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return b.sleep(ctx, b.sched.JitterDelay(d))
}

// clickButton clicks a registry position, jittered when humanized. Like a
// deploy, every click may be preceded by a pause.
func (b *Bot) clickButton(ctx context.Context, name string) error {
	if err := b.maybePause(ctx); err != nil {
		return err
	}
	p, ok := b.positions.Get(name)
	if !ok {
		return fmt.Errorf("ui position %q is not registered", name)
	}
	p = b.sched.JitterButton(p)
	px, err := b.screen.ToPixels(p)
	if err != nil {
		return fmt.Errorf("failed to convert %s position: %w", name, err)
	}
	if err := b.input.Click(ctx, px); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Warn("Click failed.", zap.String("button", name), zap.Error(err))
		return nil
	}
	b.logger.Debug("Clicked button.", zap.String("button", name), zap.Int("x", px.X), zap.Int("y", px.Y))
	return nil
}

func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
