// File: cmd/capture.go
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/geom"
	"github.com/xkilldash9x/arenabot/internal/observability"
	"github.com/xkilldash9x/arenabot/internal/orchestrator"
	"github.com/xkilldash9x/arenabot/internal/vision"
)

// newCaptureTemplateCmd creates the `capture-template` command. The user marks
// two opposite corners of a UI element with the mouse; the region is cropped
// from the live window and saved into the templates directory.
func newCaptureTemplateCmd() *cobra.Command {
	var name string

	capCmd := &cobra.Command{
		Use:   "capture-template",
		Short: "Crop a button from the game window and save it as a detection template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(vision.KnownTemplates, name) {
				return fmt.Errorf("unknown template %q, expected one of: %s", name, strings.Join(vision.KnownTemplates, ", "))
			}
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := observability.GetLogger().Named("capture")

			be, err := newBackend(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize devices: %w", err)
			}
			defer be.Close()

			if !be.screen.FindWindow() {
				return orchestrator.ErrWindowNotFound
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Capturing %s into %s\n", name, be.templates.Dir())
			region, err := selectRegion(cmd.InOrStdin(), out, be.input)
			if err != nil {
				return err
			}
			img, err := be.screen.CaptureRegion(region)
			if err != nil {
				return err
			}
			path, err := be.templates.Save(name, img)
			if err != nil {
				return err
			}
			logger.Info("Template captured.", zap.String("template", name), zap.Stringer("region", region))
			fmt.Fprintf(out, "Saved %dx%d template to %s\n", region.Dx(), region.Dy(), path)
			return nil
		},
	}

	capCmd.Flags().StringVar(&name, "name", "", "template to capture ("+strings.Join(vision.KnownTemplates, ", ")+")")
	_ = capCmd.MarkFlagRequired("name")
	return capCmd
}

// selectRegion reads the cursor position at two Enter presses and returns the
// rectangle they span.
func selectRegion(in io.Reader, out io.Writer, p pointer) (image.Rectangle, error) {
	reader := bufio.NewReader(in)
	var corners [2]geom.Pixel
	for i, label := range []string{"top-left", "bottom-right"} {
		fmt.Fprintf(out, "Hover over the %s corner of the button and press Enter: ", label)
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			fmt.Fprintln(out)
			return image.Rectangle{}, fmt.Errorf("capture aborted: %w", err)
		}
		corners[i] = p.Position()
		fmt.Fprintf(out, "  (%d, %d)\n", corners[i].X, corners[i].Y)
	}
	r := image.Rect(corners[0].X, corners[0].Y, corners[1].X, corners[1].Y)
	if r.Dx() < 2 || r.Dy() < 2 {
		return image.Rectangle{}, fmt.Errorf("region %v is too small to be a template", r)
	}
	return r, nil
}
