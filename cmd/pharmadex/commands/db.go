package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pharmadex/datasource"
	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/display"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/store"
)

// directoryTables are reported by db stats, in schema order.
var directoryTables = []string{
	"companies",
	"therapeutic_areas",
	"products",
	"websites",
	"company_therapeutic_areas",
	"product_therapeutic_areas",
	"product_websites",
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the directory store",
		Long: `Manage the directory store through the privileged client.

Examples:
  pharmadex db migrate                      # Apply pending migrations
  pharmadex db seed                         # Load the bundled demo directory
  pharmadex db seed --fixtures dir.yaml     # Load a fixture file
  pharmadex db stats                        # Row counts per table`,
	}
	cmd.AddCommand(newDBMigrateCmd(), newDBSeedCmd(), newDBStatsCmd())
	return cmd
}

// sqlHandle is implemented by clients backed by database/sql.
type sqlHandle interface {
	DB() *sql.DB
	Dialect() db.Dialect
}

func newDBMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer appCtx.Close()

			client := appCtx.Storage.Privileged()
			h, ok := client.(sqlHandle)
			if !ok {
				return errors.WithHint(
					errors.Configuration(store.ErrInvalidCredentials, "no database connection"),
					"set storage.url and storage.service_key, or storage.use_local = true")
			}
			if err := db.Migrate(h.DB(), h.Dialect(), appCtx.Logger.Named("db")); err != nil {
				return err
			}
			pterm.Success.Printf("Schema up to date (%s)\n", h.Dialect())
			return nil
		},
	}
}

func newDBSeedCmd() *cobra.Command {
	var fixtures string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixtures into the store",
		Long: `Write a fixture directory into the store. Records whose id already exists
are updated, so seeding is repeatable. Without --fixtures the bundled demo
directory is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer appCtx.Close()

			path := fixtures
			if path == "" {
				path = appCtx.Config.DataSource.Fixtures
			}
			fx, err := datasource.LoadFixtures(path)
			if err != nil {
				return err
			}
			a, err := appCtx.Access()
			if err != nil {
				return err
			}

			spinner, _ := pterm.DefaultSpinner.Start("Seeding directory")
			report, err := datasource.Seed(cmd.Context(), datasource.NewStorage(a, nil), fx)
			if err != nil {
				if spinner != nil {
					spinner.Fail("Seeding failed")
				}
				return err
			}
			if spinner != nil {
				spinner.Success("Directory seeded")
			}
			return display.Render(cmd, report, func() error {
				return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
					{"Entity", "Written"},
					{"Therapeutic areas", fmt.Sprint(report.TherapeuticAreas)},
					{"Companies", fmt.Sprint(report.Companies)},
					{"Products", fmt.Sprint(report.Products)},
					{"Websites", fmt.Sprint(report.Websites)},
				}).Render()
			})
		},
	}
	cmd.Flags().StringVar(&fixtures, "fixtures", "", "YAML fixture file (default: datasource.fixtures or the bundled directory)")
	return cmd
}

func newDBStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts per table",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer appCtx.Close()

			counts, err := tableCounts(cmd.Context(), appCtx.Storage.Privileged())
			if err != nil {
				return err
			}
			return display.Render(cmd, counts, func() error {
				rows := pterm.TableData{{"Table", "Rows"}}
				for _, t := range directoryTables {
					rows = append(rows, []string{t, fmt.Sprint(counts[t])})
				}
				pterm.DefaultSection.Println("Directory store")
				return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
			})
		},
	}
}

// tableCounts counts the rows of every directory table.
func tableCounts(ctx context.Context, client store.Client) (map[string]int, error) {
	counts := make(map[string]int, len(directoryTables))
	for _, t := range directoryTables {
		res, err := client.From(t).Select("1").Count().Range(0, 1).Execute(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "count %s", t)
		}
		counts[t] = res.Count
	}
	return counts, nil
}
