package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"timelane/internal/config"
	appLog "timelane/internal/log"
	"timelane/internal/model"
	"timelane/internal/store"
)

type App struct {
	ConfigPath string
	ItemsFile  string
	LogLevel   string
	LogFormat  string
	PrettyJSON bool

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "timelane",
		Short:        "Lay out dated items on a month timeline",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Print calendar, lanes and collisions as JSON
  timelane --items roadmap.yaml layout --pretty

  # Draw the lanes in the terminal
  timelane --items roadmap.yaml show --width 120

  # Drop item "design" at 40% of the timeline width
  timelane --items roadmap.yaml move design --fraction 0.4

  # Serve the HTTP API
  timelane --config timelane.yaml serve
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("TIMELANE_CONFIG", ""), "Path to the YAML config file (created with defaults if missing)")
	cmd.PersistentFlags().StringVar(&app.ItemsFile, "items", "", "Items file (.yaml, .json or .ics); overrides items_file from the config")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFormat, "log-format", "", "Log format (text|json)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newLayoutCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newImportCmd(app))

	return cmd
}

// init resolves the effective config: file, then environment, then flags.
func (app *App) init() error {
	cfg := config.DefaultConfig()
	if app.ConfigPath != "" {
		loaded, err := config.Load(app.ConfigPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", app.ConfigPath, err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return fmt.Errorf("apply environment: %w", err)
	}

	if app.ItemsFile != "" {
		cfg.ItemsFile = app.ItemsFile
	}
	if app.LogLevel != "" {
		cfg.LogLevel = app.LogLevel
	}
	if app.LogFormat != "" {
		cfg.LogFormat = app.LogFormat
	}

	lvl, err := appLog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	appLog.SetLevel(lvl)
	if err := appLog.SetFormat(cfg.LogFormat); err != nil {
		return err
	}

	app.cfg = cfg
	return nil
}

var errNoItemsFile = errors.New("no items file: pass --items or set items_file in the config")

func (app *App) loadItems() ([]model.Item, error) {
	if app.cfg.ItemsFile == "" {
		return nil, errNoItemsFile
	}
	return store.LoadFile(app.cfg.ItemsFile)
}

func (app *App) storeOptions() store.Options {
	return store.Options{
		Zoom:        app.cfg.ZoomLimits(),
		DefaultZoom: app.cfg.Zoom.Default,
		BannerTTL:   app.cfg.BannerTTL(),
	}
}

// loadStore builds a store from the items file. allowEmpty starts an empty
// store when no items file is configured.
func (app *App) loadStore(allowEmpty bool) (*store.Store, error) {
	items, err := app.loadItems()
	if errors.Is(err, errNoItemsFile) && allowEmpty {
		items = nil
	} else if err != nil {
		return nil, err
	}
	return store.New(items, app.storeOptions())
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
