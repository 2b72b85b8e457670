package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/pharmadex/datasource"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/server"
)

func newServerCmd() *cobra.Command {
	var (
		port   int
		dsType string
		dev    bool
	)
	cmd := &cobra.Command{
		Use:     "server",
		Aliases: []string{"serve"},
		Short:   "Start the HTTP API",
		Long: `Serve the directory API over the configured data source.

The data source is selected by datasource.type (memory or storage). The memory
source needs no database and serves the bundled demo directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the server logs requests at info by default
			if verbosity == 0 {
				verbosity = 1
			}
			appCtx, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer appCtx.Close()

			cfg := appCtx.Config
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if dsType != "" {
				cfg.DataSource.Type = dsType
			}
			if dev {
				cfg.Server.Dev = true
			}
			if err := cfg.Validate(); err != nil {
				return errors.Configuration(err, "invalid configuration")
			}
			if err := appCtx.Activate(); err != nil {
				return err
			}

			printStartupBanner(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(appCtx).ListenAndServe(ctx, cfg.Server.Port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides server.port)")
	cmd.Flags().StringVar(&dsType, "datasource", "", "Data source type: "+datasource.TypeMemory+" or "+datasource.TypeStorage)
	cmd.Flags().BoolVar(&dev, "dev", false, "Development mode: accept any CORS origin")
	return cmd
}
