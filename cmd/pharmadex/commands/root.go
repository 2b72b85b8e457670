// Package commands implements the pharmadex CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/pharmadex/app"
	"github.com/teranos/pharmadex/config"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
)

var (
	verbosity int
	jsonLogs  bool
	cfgFile   string
)

// Root builds the command tree.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "pharmadex",
		Short: "Pharmaceutical company directory backend",
		Long: `pharmadex serves a directory of pharmaceutical companies, their products,
websites and therapeutic areas over a JSON API.

Available commands:
  server      - Start the HTTP API
  db          - Migrate, seed and inspect the store
  marketdata  - Refresh company market capitalizations
  version     - Show build information

Examples:
  pharmadex server -v                 # Serve with info logging
  pharmadex db migrate                # Apply migrations to the configured store
  pharmadex db seed                   # Load the demo directory
  pharmadex marketdata refresh --ticker PFE`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
	}

	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase output verbosity (-v info, -vv debug)")
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit JSON logs")
	root.PersistentFlags().BoolP("json", "j", false, "Print results as JSON")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: search pharmadex.toml and ~/.pharmadex)")

	root.AddCommand(newServerCmd(), newDBCmd(), newMarketDataCmd(), newVersionCmd())
	return root
}

// loadConfig reads --config when given, otherwise the standard locations.
// log.json in the file turns on JSON logs when the flag was not passed.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, errors.Configuration(err, "load configuration")
	}
	if cfg.Log.JSON && !cmd.Flags().Changed("json-logs") {
		jsonLogs = true
		if err := logger.InitializeWithVerbosity(true, verbosity); err != nil {
			return nil, errors.Wrap(err, "failed to initialize logger")
		}
	}
	return cfg, nil
}

// loadApp builds the application context for a command.
func loadApp(cmd *cobra.Command) (*app.Context, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger.Logger)
}
