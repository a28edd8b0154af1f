// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/arenabot/internal/config"
	"github.com/xkilldash9x/arenabot/internal/observability"
	"github.com/xkilldash9x/arenabot/internal/orchestrator"
)

type runFlags struct {
	noHumanize      bool
	battleButton    string
	okButton        string
	playAgainButton string
}

// newRunCmd creates the `run` command, the full detection driven game loop.
func newRunCmd(v *viper.Viper) *cobra.Command {
	var flags runFlags

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Play battles until the game count is reached or the bot is stopped",
		Long: `Locates the mirrored game window, starts a battle from the main menu and keeps
deploying cards until the end screen is detected, then queues the next battle.
Press the stop key (default esc) or Ctrl+C to stop after the current action.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := flags.apply(cfg); err != nil {
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
			summary, err := runWithStopKey(cmd.Context(), bot, be.hotkey, bot.Run)
			if summary != nil {
				if rerr := report(cmd.OutOrStdout(), cfg, summary, logger); rerr != nil && err == nil {
					err = rerr
				}
			}
			return err
		},
	}

	f := runCmd.Flags()
	f.Int("games", 0, "number of games to play (0 plays until stopped)")
	f.Bool("random", false, "pick card slots and drop targets at random instead of cycling")
	f.String("report", "", "write a JSON run summary to this path")
	f.BoolVar(&flags.noHumanize, "no-humanize", false, "disable timing and position humanization")
	f.StringVar(&flags.battleButton, "battle-button", "", "battle button position as x,y fractions")
	f.StringVar(&flags.okButton, "ok-button", "", "end screen OK button position as x,y fractions")
	f.StringVar(&flags.playAgainButton, "play-again-button", "", "play again button position as x,y fractions")
	bindFlags(v, f, map[string]string{
		"battle.games":     "games",
		"battle.randomize": "random",
		"report.path":      "report",
	})
	return runCmd
}

// apply folds the flags viper cannot bind directly into cfg.
func (f runFlags) apply(cfg *config.Config) error {
	if f.noHumanize {
		cfg.Humanoid.Enabled = false
	}
	for _, o := range []struct {
		flag, value string
		dst         *[]float64
	}{
		{"battle-button", f.battleButton, &cfg.UI.BattleButton},
		{"ok-button", f.okButton, &cfg.UI.OKButton},
		{"play-again-button", f.playAgainButton, &cfg.UI.PlayAgainButton},
	} {
		if o.value == "" {
			continue
		}
		pair, err := parsePair(o.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", o.flag, err)
		}
		*o.dst = pair
	}
	return cfg.UI.Validate()
}

// parsePair parses "x,y" into a two element slice.
func parsePair(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected x,y but got %q", s)
	}
	pair := make([]float64, 2)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", p, err)
		}
		pair[i] = f
	}
	return pair, nil
}

// runWithStopKey runs loop next to the stop key listener. A key press stops
// the bot and cancels the loop context; the listener exits when the loop
// returns.
func runWithStopKey(
	ctx context.Context,
	bot *orchestrator.Bot,
	hotkey stopListener,
	loop func(context.Context) (*orchestrator.Summary, error),
) (*orchestrator.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if hotkey != nil {
		g.Go(func() error {
			return hotkey.Listen(gctx, func() {
				bot.Stop()
				cancel()
			})
		})
	}

	var summary *orchestrator.Summary
	g.Go(func() error {
		defer cancel()
		var err error
		summary, err = loop(gctx)
		return err
	})

	err := g.Wait()
	return summary, err
}

// report prints the run summary and writes the JSON report when a path is
// configured.
func report(w io.Writer, cfg *config.Config, s *orchestrator.Summary, logger *zap.Logger) error {
	status := "finished"
	if s.Interrupted {
		status = "stopped"
	}
	fmt.Fprintf(w, "Run %s %s (%s mode)\n", s.RunID, status, s.Mode)
	fmt.Fprintf(w, "  games played:   %d\n", s.GamesPlayed)
	fmt.Fprintf(w, "  cards deployed: %d\n", s.CardsDeployed)
	fmt.Fprintf(w, "  forced ends:    %d\n", s.ForcedEnds)
	fmt.Fprintf(w, "  elapsed:        %s\n", s.Elapsed().Round(time.Second))

	if cfg.Report.Path == "" {
		return nil
	}
	if err := s.WriteJSON(cfg.Report.Path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("Run report written.", zap.String("path", cfg.Report.Path))
	return nil
}
