// File: cmd/detect.go
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/arenabot/internal/game"
	"github.com/xkilldash9x/arenabot/internal/observability"
	"github.com/xkilldash9x/arenabot/internal/orchestrator"
)

// newDetectCmd creates the `detect` command, a one-shot diagnosis of the
// current screen: the classified state plus every template score.
func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Classify the current game screen and print template scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if !be.screen.FindWindow() {
				return orchestrator.ErrWindowNotFound
			}
			screen, ok := be.detector.Capture(cmd.Context())
			if !ok {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				return errors.New("failed to capture the game window")
			}

			out := cmd.OutOrStdout()
			state := be.detector.Classify(screen, game.Unknown)
			fmt.Fprintf(out, "State: %s\n", state)
			fmt.Fprintf(out, "%-20s %8s %10s %6s  %s\n", "TEMPLATE", "SCORE", "THRESHOLD", "STATE", "MATCH")
			for _, s := range be.detector.Scores(screen) {
				if !s.Loaded {
					fmt.Fprintf(out, "%-20s %8s %10s %6s  template missing\n", s.Template, "-", "-", "-")
					continue
				}
				verdict := "no"
				if s.Matched {
					verdict = fmt.Sprintf("yes at (%d, %d)", s.Center.X, s.Center.Y)
				}
				fmt.Fprintf(out, "%-20s %8.3f %10.2f %6s  %s\n", s.Template, s.Score, s.Threshold, yesNo(s.State), verdict)
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
