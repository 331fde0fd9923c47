package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"timelane/internal/layout"
	appLog "timelane/internal/log"
	"timelane/internal/store"
)

// ErrMoveRejected is returned by the move command when the drop collides.
var ErrMoveRejected = errors.New("move rejected: the item would overlap another item")

func newMoveCmd(app *App) *cobra.Command {
	var (
		fraction float64
		pixel    float64
		width    float64
		zoom     float64
		write    bool
	)

	cmd := &cobra.Command{
		Use:   "move <item-id>",
		Short: "Drop an item at a new position and report the outcome",
		Long: `Drop an item at a point on the timeline, given either as a fraction of the
timeline width (--fraction) or as a pixel position in a container of known
width (--pixel and --width). The item keeps its length. The move is rejected
if it would overlap another item.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pointer, err := pointerFraction(cmd, fraction, pixel, width)
			if err != nil {
				return err
			}

			st, err := app.loadStore(false)
			if err != nil {
				return err
			}
			res, err := st.Move(args[0], pointer, zoom)
			if err != nil {
				return err
			}
			if err := writeOut(cmd, app, res); err != nil {
				return err
			}
			if !res.Accepted {
				return ErrMoveRejected
			}

			if write {
				if err := store.SaveFile(app.cfg.ItemsFile, st.Items()); err != nil {
					return fmt.Errorf("save items: %w", err)
				}
				appLog.Info("items file updated", "path", app.cfg.ItemsFile)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&fraction, "fraction", 0, "Drop point as a fraction of the timeline width")
	cmd.Flags().Float64Var(&pixel, "pixel", 0, "Drop point in pixels (with --width)")
	cmd.Flags().Float64Var(&width, "width", 0, "Container width in pixels (with --pixel)")
	cmd.Flags().Float64Var(&zoom, "zoom", 0, "Zoom factor the pointer was measured at (default: configured zoom)")
	cmd.Flags().BoolVar(&write, "write", false, "Write an accepted move back to the items file")
	return cmd
}

func pointerFraction(cmd *cobra.Command, fraction, pixel, width float64) (float64, error) {
	hasFraction := cmd.Flags().Changed("fraction")
	hasPixel := cmd.Flags().Changed("pixel")

	switch {
	case hasFraction && hasPixel:
		return 0, errors.New("use either --fraction or --pixel, not both")
	case hasFraction:
		return fraction, nil
	case hasPixel:
		if width <= 0 {
			return 0, errors.New("--pixel needs a positive --width")
		}
		return layout.PointerFraction(pixel, width), nil
	}
	return 0, errors.New("one of --fraction or --pixel is required")
}
