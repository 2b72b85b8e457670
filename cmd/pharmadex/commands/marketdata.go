package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pharmadex/display"
	"github.com/teranos/pharmadex/marketdata"
)

func newMarketDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marketdata",
		Short: "Company market data",
		Long: `Fetch market capitalizations from the configured financial-data provider.

Requires marketdata.api_key (or PHARMADEX_MARKETDATA_API_KEY). Requests are
rate limited to marketdata.requests_per_minute.

Examples:
  pharmadex marketdata quote PFE
  pharmadex marketdata refresh                # every company with a ticker
  pharmadex marketdata refresh --ticker PFE --ticker NVS`,
	}
	cmd.AddCommand(newMarketDataQuoteCmd(), newMarketDataRefreshCmd())
	return cmd
}

func newMarketDataQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote TICKER",
		Short: "Look up one ticker without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := marketdata.OptionsFromConfig(cfg.MarketData)
			client, err := marketdata.NewClient(opts)
			if err != nil {
				return err
			}
			q, err := client.Quote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return display.Render(cmd, q, func() error {
				pterm.Info.Printf("%s  market cap $%.2fB  price $%.2f\n", q.Ticker, q.MarketCapBillions, q.Price)
				return nil
			})
		},
	}
}

func newMarketDataRefreshCmd() *cobra.Command {
	var tickers []string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Update company market caps in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer appCtx.Close()

			opts := marketdata.OptionsFromConfig(appCtx.Config.MarketData)
			opts.Logger = appCtx.Logger.Named("marketdata")
			client, err := marketdata.NewClient(opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			refresher := marketdata.NewRefresher(client, appCtx.Storage.Privileged(), opts.Logger)
			report, err := refresher.Refresh(ctx, tickers...)
			if err != nil {
				return err
			}
			return display.Render(cmd, report, func() error { return renderRefreshReport(report) })
		},
	}
	cmd.Flags().StringSliceVarP(&tickers, "ticker", "t", nil, "Only refresh these tickers (repeatable)")
	return cmd
}

func renderRefreshReport(report marketdata.Report) error {
	if len(report.Outcomes) == 0 {
		pterm.Warning.Println("No companies with a matching ticker")
		return nil
	}
	rows := pterm.TableData{{"Ticker", "Company", "Market cap (B)", "Result"}}
	for _, o := range report.Outcomes {
		mc, result := "-", pterm.Green("updated")
		if o.MarketCapBillions != nil {
			mc = fmt.Sprintf("%.2f", *o.MarketCapBillions)
		}
		if o.Error != "" {
			result = pterm.Red(o.Error)
		}
		rows = append(rows, []string{o.Ticker, o.CompanyID, mc, result})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}
	if report.Failed > 0 {
		pterm.Warning.Printf("%d updated, %d failed\n", report.Updated, report.Failed)
		return nil
	}
	pterm.Success.Printf("%d updated\n", report.Updated)
	return nil
}
