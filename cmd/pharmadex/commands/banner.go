package commands

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/teranos/pharmadex/config"
	"github.com/teranos/pharmadex/logger"
	"github.com/teranos/pharmadex/version"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(cfg *config.Config) {
	info := version.Get()

	pterm.DefaultHeader.WithFullWidth().Println("pharmadex")

	store := "remote"
	if cfg.Storage.UseLocal {
		store = "local (" + cfg.Storage.GetLocalPath() + ")"
	}
	rows := pterm.TableData{
		{"Version", fmt.Sprintf("%s (commit %s)", info.Version, info.Short())},
		{"Built", info.BuildTime},
		{"Verbosity", logger.LevelName(verbosity)},
		{"Data source", cfg.DataSource.Type},
		{"Listening", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)},
	}
	if cfg.DataSource.Type == "storage" {
		rows = append(rows, []string{"Store", store}, []string{"Aggregation", cfg.Storage.Aggregation})
	}
	_ = pterm.DefaultTable.WithData(rows).Render()

	pterm.Println()
	pterm.Info.Println("Press Ctrl+C to stop")
}
