package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"timelane/internal/ics"
	appLog "timelane/internal/log"
	"timelane/internal/store"
)

func newImportCmd(app *App) *cobra.Command {
	var (
		out    string
		source string
	)

	cmd := &cobra.Command{
		Use:   "import <file.ics>",
		Short: "Convert the events of an ICS file into an items file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if source == "" {
				source = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			items, err := ics.ParseItems(ics.Source{ID: source, URL: "file://" + args[0]}, body)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			if out == "" {
				return writeOut(cmd, app, items)
			}
			if err := store.SaveFile(out, items); err != nil {
				return err
			}
			appLog.Info("items file written", "path", out, "items", len(items))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d items to %s\n", len(items), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the items to this .yaml or .json file instead of stdout")
	cmd.Flags().StringVar(&source, "source", "", "Source tag for the imported items (default: file name)")
	return cmd
}
