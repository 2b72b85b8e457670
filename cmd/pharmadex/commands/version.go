package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/pharmadex/display"
	"github.com/teranos/pharmadex/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show pharmadex version information",
		Long:  `Display version, build time, commit hash, and platform information for the pharmadex binary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			return display.Render(cmd, info, func() error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, info.String())
				fmt.Fprintf(out, "Platform: %s\n", info.Platform)
				fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
				return nil
			})
		},
	}
}
