package cli

import (
	"github.com/spf13/cobra"

	"timelane/internal/ics"
	appLog "timelane/internal/log"
	"timelane/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the timeline HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := app.cfg

			// --listen overrides the config file.
			if listen != "" {
				cfg.Listen = listen
			}

			st, err := app.loadStore(true)
			if err != nil {
				return err
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"items_file", cfg.ItemsFile,
				"items", st.Len(),
				"zoom_default", cfg.Zoom.Default,
				"refresh", cfg.RefreshCron,
				"ics_count", len(cfg.ICS),
				"basic_auth", cfg.BasicAuth != nil,
			)

			if len(cfg.ICS) > 0 {
				sources := make([]ics.Source, 0, len(cfg.ICS))
				for _, c := range cfg.ICS {
					if c.URL == "" {
						continue
					}
					sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
				}

				refresher := ics.NewRefresher(ics.NewFetcher(cfg.ICSCacheDir, nil), sources, st)
				if _, errs := refresher.RefreshOnce(ctx); len(errs) > 0 {
					appLog.Warn("initial ICS import incomplete", "error_count", len(errs))
				}
				if err := refresher.Start(ctx, cfg.RefreshCron); err != nil {
					return err
				}
			}

			return web.StartServer(ctx, cfg, st)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}
