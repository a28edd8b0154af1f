// File: cmd/windows.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/arenabot/internal/observability"
)

// newWindowsCmd creates the `windows` command, which lists the desktop windows
// so the window.title setting can be checked.
func newWindowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "windows",
		Short: "List open windows and mark the one matching the configured title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			be, err := newBackend(cfg, observability.GetLogger())
			if err != nil {
				return fmt.Errorf("failed to initialize devices: %w", err)
			}
			defer be.Close()

			list, err := be.screen.Windows()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s %-5s %-24s %s\n", "PID", "MATCH", "BOUNDS", "TITLE")
			matched := false
			for _, w := range list {
				mark := ""
				if w.Match {
					mark, matched = "*", true
				}
				bounds := fmt.Sprintf("%dx%d at (%d,%d)", w.Bounds.Dx(), w.Bounds.Dy(), w.Bounds.Min.X, w.Bounds.Min.Y)
				fmt.Fprintf(out, "%-8d %-5s %-24s %s\n", w.PID, mark, bounds, w.Title)
			}
			if !matched {
				fmt.Fprintf(out, "No window matches %q.\n", cfg.Window.Title)
			}
			return nil
		},
	}
}
