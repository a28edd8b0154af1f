// internal/orchestrator/deploy.go
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/game"
	"github.com/xkilldash9x/arenabot/internal/geom"
)

// deployCard drags the card in slot onto target. Input failures are logged
// and the deploy still counts. Inside a battle a drag that cannot finish
// before the safety ceiling is skipped with errCeilingReached.
func (b *Bot) deployCard(ctx context.Context, slot int, target geom.Point) error {
	card := b.layout.Slot(slot).Add(b.sched.CardOffset())
	drop := b.layout.Arena.Clamp(b.sched.JitterDrop(target))

	from, err := b.screen.ToPixels(card)
	if err != nil {
		return fmt.Errorf("failed to convert card slot %d: %w", slot, err)
	}
	to, err := b.screen.ToPixels(drop)
	if err != nil {
		return fmt.Errorf("failed to convert drop target: %w", err)
	}

	if h := b.sched.Hesitation(); h > 0 {
		if err := b.sleep(ctx, h); err != nil {
			return err
		}
	}

	duration := b.sched.DragDuration(b.opts.DragDuration)
	if rem, ok := b.battleRemaining(); ok && rem < duration {
		return errCeilingReached
	}
	if err := b.input.Drag(ctx, from, to, duration); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Warn("Drag failed.", zap.Int("slot", slot), zap.Error(err))
	}
	b.summary.CardsDeployed++
	b.logger.Debug("Deployed card.",
		zap.Int("slot", slot),
		zap.Float64("x", drop.X), zap.Float64("y", drop.Y),
		zap.Duration("drag", duration))
	return nil
}

// deployWait is the pause between two deploys: a Beta-distributed interval
// when humanized, the fixed deploy delay otherwise.
func (b *Bot) deployWait() time.Duration {
	if b.opts.Humanize {
		return b.sched.DeployInterval(b.opts.DeployIntervalMin, b.opts.DeployIntervalMax)
	}
	return b.opts.DeployDelay
}

// DeployOnce drags a single card onto target. It is used to verify the
// layout against a live window.
func (b *Bot) DeployOnce(ctx context.Context, slot int, target geom.Point) error {
	if slot < 0 || slot >= game.NumSlots {
		return fmt.Errorf("card slot %d out of range [0,%d)", slot, game.NumSlots)
	}
	if !target.InUnit() {
		return fmt.Errorf("drop target %+v outside the window", target)
	}
	if err := b.ensureWindow(ctx); err != nil {
		return err
	}
	b.logger.Info("Test deploy.", zap.Int("slot", slot), zap.Float64("x", target.X), zap.Float64("y", target.Y))
	return b.deployCard(ctx, slot, target)
}

// RunContinuous deploys cards without any state detection. count 0 deploys
// until stopped; delay 0 uses the configured deploy delay. randomize overrides
// the configured selection mode for this run.
func (b *Bot) RunContinuous(ctx context.Context, count int, delay time.Duration, randomize bool) (*Summary, error) {
	b.summary.Mode = "continuous"
	if err := b.ensureWindow(ctx); err != nil {
		if isInterrupt(err) {
			return b.finish(true), nil
		}
		return nil, err
	}
	if delay <= 0 {
		delay = b.opts.DeployDelay
	}
	selector := game.NewSelector(b.layout, randomize, b.rng)

	b.logger.Info("Starting continuous deploy.",
		zap.String("run_id", b.summary.RunID),
		zap.Int("count", count),
		zap.Duration("delay", delay),
		zap.Bool("randomize", randomize))

	for i := 0; count == 0 || i < count; i++ {
		if b.stopRequested() {
			return b.finish(true), nil
		}
		if err := b.maybePause(ctx); err != nil {
			return b.finishErr(err)
		}
		slot, target := selector.Next()
		if err := b.deployCard(ctx, slot, target); err != nil {
			return b.finishErr(err)
		}
		if count > 0 && i == count-1 {
			break
		}
		if err := b.sleep(ctx, b.sched.JitterDelay(delay)); err != nil {
			return b.finishErr(err)
		}
	}
	return b.finish(false), nil
}

// finishErr maps a loop error to the summary contract: interrupts are
// reported as an interrupted summary, anything else is returned.
func (b *Bot) finishErr(err error) (*Summary, error) {
	if isInterrupt(err) {
		return b.finish(true), nil
	}
	return b.finish(false), err
}
