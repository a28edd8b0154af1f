// internal/orchestrator/endscreen.go
package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/game"
)

// handleEndScreen dismisses the end screen with play-again or OK, then polls
// until it is gone. Polls are paced by the limiter and a visible end screen is
// clicked again, at most DismissRetries times. The transition is made
// regardless of the outcome so the loop always makes progress. After
// play-again the between-games wait runs before the next battle is entered.
func (b *Bot) handleEndScreen(ctx context.Context, playAgain bool) error {
	button, next := game.OKButton, game.MainMenu
	if playAgain {
		button, next = game.PlayAgainButton, game.InBattle
	}
	b.logger.Info("Dismissing end screen.", zap.String("button", button))

	if err := b.clickButton(ctx, button); err != nil {
		return err
	}
	if err := b.settle(ctx, b.opts.EndScreenSettle); err != nil {
		return err
	}

	for retry := 0; ; retry++ {
		if err := b.pace(ctx); err != nil {
			return err
		}
		if !b.detector.IsBattleOver(ctx) {
			break
		}
		if retry >= b.opts.DismissRetries {
			b.logger.Warn("End screen still visible, moving on.",
				zap.String("button", button),
				zap.Int("retries", retry))
			break
		}
		b.logger.Warn("End screen still visible, clicking again.",
			zap.String("button", button),
			zap.Int("attempt", retry+1))
		if err := b.clickButton(ctx, button); err != nil {
			return err
		}
	}

	if playAgain {
		wait := b.sched.BetweenGames(b.opts.BetweenGames)
		b.logger.Debug("Waiting between games.", zap.Duration("wait", wait))
		if err := b.sleep(ctx, wait); err != nil {
			return err
		}
	}
	b.transition(next)
	return nil
}

// pace waits for a token from the verification limiter.
func (b *Bot) pace(ctx context.Context) error {
	now := b.clock.Now()
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return nil
	}
	return b.sleep(ctx, r.DelayFrom(now))
}
