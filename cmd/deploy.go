// File: cmd/deploy.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/arenabot/internal/game"
	"github.com/xkilldash9x/arenabot/internal/geom"
	"github.com/xkilldash9x/arenabot/internal/observability"
	"github.com/xkilldash9x/arenabot/internal/orchestrator"
)

// newDeployCmd creates the `deploy` command: card deploys on a timer with no
// screen detection, for practice matches or a battle already in progress.
func newDeployCmd() *cobra.Command {
	var (
		count     int
		delay     time.Duration
		randomize bool
	)

	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy cards continuously without detecting the game state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return fmt.Errorf("--count must not be negative, got %d", count)
			}
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			be, err := newBackend(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize devices: %w", err)
			}
			defer be.Close()

			bot, err := newBot(cfg, be, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize bot: %w", err)
			}
			summary, err := runWithStopKey(cmd.Context(), bot, be.hotkey, func(ctx context.Context) (*orchestrator.Summary, error) {
				return bot.RunContinuous(ctx, count, delay, randomize)
			})
			if summary != nil {
				if rerr := report(cmd.OutOrStdout(), cfg, summary, logger); rerr != nil && err == nil {
					err = rerr
				}
			}
			return err
		},
	}

	f := deployCmd.Flags()
	f.IntVar(&count, "count", 0, "number of cards to deploy (0 deploys until stopped)")
	f.DurationVar(&delay, "delay", 0, "pause between deploys (0 uses timing.deploy_delay)")
	f.BoolVar(&randomize, "random", false, "pick card slots and drop targets at random")
	return deployCmd
}

// newTestDeployCmd creates the `test-deploy` command, a single drag used to
// check the card tray and arena layout against the live window.
func newTestDeployCmd() *cobra.Command {
	var (
		slot   int
		target string
	)

	testCmd := &cobra.Command{
		Use:   "test-deploy",
		Short: "Drag one card onto the arena to verify the layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			drop := geom.Pt(cfg.Layout.DropTargets[0][0], cfg.Layout.DropTargets[0][1])
			if target != "" {
				pair, err := parsePair(target)
				if err != nil {
					return fmt.Errorf("--target: %w", err)
				}
				drop = geom.Pt(pair[0], pair[1])
			}
			if slot < 0 || slot >= game.NumSlots {
				return fmt.Errorf("--slot must be within [0,%d), got %d", game.NumSlots, slot)
			}
			logger := observability.GetLogger()

			be, err := newBackend(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize devices: %w", err)
			}
			defer be.Close()

			bot, err := newBot(cfg, be, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize bot: %w", err)
			}
			if err := bot.DeployOnce(cmd.Context(), slot, drop); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deployed slot %d to (%.3f, %.3f)\n", slot, drop.X, drop.Y)
			return nil
		},
	}

	testCmd.Flags().IntVar(&slot, "slot", 0, "card slot to drag, 0 to 3 from the left")
	testCmd.Flags().StringVar(&target, "target", "", "drop target as x,y fractions (default: first configured target)")
	return testCmd
}
