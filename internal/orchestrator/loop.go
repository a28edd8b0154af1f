// internal/orchestrator/loop.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/game"
)

// Run plays games until the requested count is reached, the stop flag is set
// or ctx is cancelled. An interrupt is not an error: the returned summary is
// marked Interrupted.
func (b *Bot) Run(ctx context.Context) (*Summary, error) {
	b.summary.Mode = "game"
	if err := b.ensureWindow(ctx); err != nil {
		if isInterrupt(err) {
			return b.finish(true), nil
		}
		return nil, err
	}

	b.logger.Info("Starting game loop.",
		zap.String("run_id", b.summary.RunID),
		zap.Int("games", b.opts.Games),
		zap.Bool("humanize", b.opts.Humanize),
		zap.Bool("randomize", b.opts.Randomize))

	switch err := b.gameLoop(ctx); {
	case err == nil:
		return b.finish(b.stopRequested()), nil
	case isInterrupt(err):
		return b.finish(true), nil
	default:
		b.logger.Error("Game loop failed.", zap.Error(err))
		return b.finish(false), fmt.Errorf("game loop failed: %w", err)
	}
}

func (b *Bot) gameLoop(ctx context.Context) error {
	if err := b.enterFromMenu(ctx); err != nil {
		return err
	}
	for {
		if b.stopRequested() {
			return nil
		}
		if err := b.playBattle(ctx); err != nil {
			return err
		}

		last := b.opts.Games > 0 && b.summary.GamesPlayed+1 >= b.opts.Games
		if err := b.handleEndScreen(ctx, !last); err != nil {
			return err
		}
		b.summary.GamesPlayed++
		b.logger.Info("Game complete.",
			zap.Int("games_played", b.summary.GamesPlayed),
			zap.Int("cards_deployed", b.summary.CardsDeployed))
		if last {
			return nil
		}
	}
}

// enterFromMenu starts the first battle. The menu is assumed rather than
// detected: the battle button is only clicked from a known menu context.
func (b *Bot) enterFromMenu(ctx context.Context) error {
	if prev := b.detector.DetectState(ctx, b.machine.State()); prev != game.Unknown && prev != game.MainMenu {
		b.logger.Warn("Screen does not look like the main menu, clicking battle anyway.", zap.Stringer("detected", prev))
	}
	b.transition(game.MainMenu)
	if err := b.settle(ctx, b.opts.MenuSettle); err != nil {
		return err
	}
	if err := b.clickButton(ctx, game.BattleButton); err != nil {
		return err
	}
	if err := b.settle(ctx, b.opts.BattleStartWait); err != nil {
		return err
	}
	b.transition(game.InBattle)
	return nil
}

// playBattle runs the deploy loop until the battle is detected as over or the
// safety ceiling is reached. The ceiling is checked after every wait.
func (b *Bot) playBattle(ctx context.Context) error {
	sess := b.session
	seq := 0
	if sess != nil {
		seq = sess.Seq
	}
	b.logger.Info("Playing battle.", zap.Int("battle", seq))

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.endAtCeiling(seq, n) {
			return nil
		}
		if err := b.maybePause(ctx); err != nil {
			return err
		}
		if b.endAtCeiling(seq, n) {
			return nil
		}

		slot, target := b.selector.Next()
		switch err := b.deployCard(ctx, slot, target); {
		case errors.Is(err, errCeilingReached):
			b.forceEnd(seq, n)
			return nil
		case err != nil:
			return err
		}
		n++
		if sess != nil {
			sess.Deploys++
		}

		if n > b.opts.SkipInitialChecks && n%b.opts.CheckEvery == 0 {
			if b.detector.IsBattleOver(ctx) {
				b.logger.Info("Battle over detected.", zap.Int("battle", seq), zap.Int("deploys", n))
				b.transition(game.BattleEnded)
				return nil
			}
		}

		if err := b.sleep(ctx, b.deployWait()); err != nil {
			return err
		}
	}
}

// endAtCeiling force-ends the battle once the safety ceiling is reached.
func (b *Bot) endAtCeiling(seq, deploys int) bool {
	if rem, ok := b.battleRemaining(); !ok || rem > 0 {
		return false
	}
	b.forceEnd(seq, deploys)
	return true
}

func (b *Bot) forceEnd(seq, deploys int) {
	b.logger.Warn("battle safety ceiling reached",
		zap.Int("battle", seq),
		zap.Duration("elapsed", b.machine.BattleElapsed()),
		zap.Int("deploys", deploys))
	if b.session != nil {
		b.session.Forced = true
	}
	b.transition(game.BattleEnded)
}

// maybePause sleeps for a think or distraction pause when one is drawn.
func (b *Bot) maybePause(ctx context.Context) error {
	p := b.sched.NextPause()
	if p.Duration <= 0 {
		return nil
	}
	b.logger.Debug("Pausing.", zap.Stringer("kind", p.Kind), zap.Duration("duration", p.Duration))
	return b.sleep(ctx, p.Duration)
}

// finish stamps the summary and logs the outcome.
func (b *Bot) finish(interrupted bool) *Summary {
	b.summary.EndedAt = b.clock.Now()
	b.summary.Interrupted = interrupted
	fields := []zap.Field{
		zap.Int("games_played", b.summary.GamesPlayed),
		zap.Int("cards_deployed", b.summary.CardsDeployed),
		zap.Int("forced_ends", b.summary.ForcedEnds),
		zap.Duration("elapsed", b.summary.Elapsed()),
	}
	if interrupted {
		b.logger.Info("stopped by user", fields...)
	} else {
		b.logger.Info("Run finished.", fields...)
	}
	return b.summary
}
