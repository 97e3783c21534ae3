// Command supplydesk extracts supplier quotes, reconciles them against the
// catalog and renders order documents.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"supplydesk/internal/app"
	"supplydesk/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "supplydesk",
	Short:         "Supplier quote extraction, catalog reconciliation and order documents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load()
		return err
	},
}

func main() {
	must(rootCmd.Execute())
}

func openApp() (*app.App, error) {
	return app.Open(cfg, app.NewLogger(cfg, os.Stderr))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
