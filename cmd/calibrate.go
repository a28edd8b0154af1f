// File: cmd/calibrate.go
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/game"
	"github.com/xkilldash9x/arenabot/internal/geom"
	"github.com/xkilldash9x/arenabot/internal/observability"
	"github.com/xkilldash9x/arenabot/internal/orchestrator"
)

var calibrationTargets = []struct {
	name, label string
}{
	{game.BattleButton, "Battle button on the main menu"},
	{game.OKButton, "OK button on the end screen"},
	{game.PlayAgainButton, "Play Again button on the end screen"},
}

// newCalibrateCmd creates the `calibrate` command. The user hovers the mouse
// over each button and presses Enter; the cursor position is converted to
// window fractions.
func newCalibrateCmd(v *viper.Viper) *cobra.Command {
	var save string

	calCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Record the UI button positions by pointing at them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := observability.GetLogger().Named("calibrate")

			be, err := newBackend(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize devices: %w", err)
			}
			defer be.Close()

			registry, err := game.RegistryFromConfig(cfg.UI)
			if err != nil {
				return err
			}
			if !be.screen.FindWindow() {
				return orchestrator.ErrWindowNotFound
			}

			changed, err := calibrate(cmd.InOrStdin(), cmd.OutOrStdout(), be, registry)
			if err != nil {
				return err
			}
			positions := registry.Snapshot()
			printPositions(cmd.OutOrStdout(), registry.Names(), positions)

			if save == "" || len(changed) == 0 {
				return nil
			}
			for _, name := range changed {
				p := positions[name]
				v.Set("ui."+name, []float64{p.X, p.Y})
			}
			if err := v.WriteConfigAs(save); err != nil {
				return fmt.Errorf("failed to save calibration: %w", err)
			}
			logger.Info("Calibration saved.", zap.String("path", save), zap.Strings("positions", changed))
			return nil
		},
	}

	calCmd.Flags().StringVar(&save, "save", "", "write the resulting configuration to this file")
	return calCmd
}

// calibrate walks the user through every target. An "s" answer keeps the
// current position. It returns the names that were updated.
func calibrate(in io.Reader, out io.Writer, be *backend, registry *game.Registry) ([]string, error) {
	reader := bufio.NewReader(in)
	var changed []string

	for _, t := range calibrationTargets {
		fmt.Fprintf(out, "Hover over the %s and press Enter (s to skip): ", t.label)
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return changed, fmt.Errorf("failed to read input: %w", err)
			}
			if line == "" {
				fmt.Fprintln(out)
				return changed, nil
			}
		}
		if strings.EqualFold(strings.TrimSpace(line), "s") {
			continue
		}

		px := be.input.Position()
		p, inside, err := be.screen.FromPixels(px)
		if err != nil {
			return changed, err
		}
		if !inside {
			fmt.Fprintf(out, "  cursor at (%d, %d) is outside the game window, keeping the old position\n", px.X, px.Y)
			continue
		}
		if err := registry.Set(t.name, p); err != nil {
			return changed, err
		}
		changed = append(changed, t.name)
		fmt.Fprintf(out, "  %s = [%.3f, %.3f]\n", t.name, p.X, p.Y)
	}
	return changed, nil
}

// printPositions renders the positions as a ui config section.
func printPositions(out io.Writer, names []string, positions map[string]geom.Point) {
	fmt.Fprintln(out, "ui:")
	for _, name := range names {
		p := positions[name]
		fmt.Fprintf(out, "  %s: [%.3f, %.3f]\n", name, p.X, p.Y)
	}
}
