// Package display decides how CLI commands render results: JSON for scripts,
// pterm tables for people.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ShouldOutputJSON reports whether cmd should print JSON. An explicit --json
// flag wins; otherwise PHARMADEX_OUTPUT=json selects it.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return envJSON()
	}
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool("json")
		return v
	}
	if f := cmd.Root().PersistentFlags().Lookup("json"); f != nil && f.Changed {
		v, _ := cmd.Root().PersistentFlags().GetBool("json")
		return v
	}
	return envJSON()
}

func envJSON() bool {
	return os.Getenv("PHARMADEX_OUTPUT") == "json"
}

// MarshalJSON renders v as indented JSON.
func MarshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// OutputJSON writes v to w as indented JSON followed by a newline.
func OutputJSON(w io.Writer, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Render writes v as JSON when the command asks for it and calls human
// otherwise.
func Render(cmd *cobra.Command, v any, human func() error) error {
	if ShouldOutputJSON(cmd) {
		return OutputJSON(cmd.OutOrStdout(), v)
	}
	return human()
}
