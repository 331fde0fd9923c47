package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"timelane/internal/layout"
	"timelane/internal/render"
)

type layoutOutput struct {
	Calendar *layout.Calendar        `json:"calendar"`
	Lanes    []layout.Lane           `json:"lanes"`
	Errors   []layout.CollisionError `json:"errors"`
}

func newLayoutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the calendar, lanes and collisions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.loadStore(false)
			if err != nil {
				return err
			}

			snap, err := st.Layout()
			if errors.Is(err, layout.ErrEmptyInput) {
				return writeOut(cmd, app, layoutOutput{Lanes: []layout.Lane{}, Errors: []layout.CollisionError{}})
			}
			if err != nil {
				return err
			}
			return writeOut(cmd, app, layoutOutput{
				Calendar: &snap.Calendar,
				Lanes:    snap.Assignment.Lanes,
				Errors:   snap.Assignment.Errors,
			})
		},
	}
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	var (
		width int
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Draw the timeline lanes in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.loadStore(false)
			if err != nil {
				return err
			}

			snap, err := st.Layout()
			if err != nil && !errors.Is(err, layout.ErrEmptyInput) {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, render.Render(snap.Calendar, snap.Assignment, width))
			if list {
				fmt.Fprintln(out)
				fmt.Fprint(out, render.Summary(snap.Assignment))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 100, "Timeline width in columns")
	cmd.Flags().BoolVar(&list, "list", false, "Also list every item with its dates and lane")
	return cmd
}
