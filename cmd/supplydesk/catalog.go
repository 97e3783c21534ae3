package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Sync, import and search the local catalog snapshot",
}

var catalogSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull products from the catalog API into the local snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		svc := a.CatalogSync()
		var n int
		if syncFull {
			n, err = svc.FullSync(cmd.Context())
		} else {
			n, err = svc.IncrementalSync(cmd.Context())
		}
		if err != nil {
			return err
		}
		fmt.Printf("catalog sync done products=%d full=%t\n", n, syncFull)
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Extract a supplier document and create its records as catalog products",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		profile, err := pickProfile(a.Profiles, importProfile, "")
		if err != nil {
			return err
		}
		res, err := a.Documents().ExtractPath(cmd.Context(), importFile, profile)
		if err != nil {
			return err
		}
		importer, err := a.Importer(cmd.Context(), importSupplier)
		if err != nil {
			return err
		}
		out, err := importer.Import(cmd.Context(), res.Records)
		if err != nil {
			return err
		}
		for _, e := range out.Errors {
			fmt.Fprintf(os.Stderr, "failed %s\n", e.Error())
		}
		fmt.Printf("catalog import done created=%d failed=%d\n", len(out.Created), out.Failed)
		return nil
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search the local catalog snapshot by code or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.DB.Search(cmd.Context(), args[0], searchLimit)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var (
	syncFull       bool
	importFile     string
	importProfile  string
	importSupplier string
	searchLimit    int
)

func init() {
	catalogSyncCmd.Flags().BoolVar(&syncFull, "full", false, "Ignore the last sync time and pull everything")

	catalogImportCmd.Flags().StringVarP(&importFile, "file", "f", "", "Supplier document to import")
	catalogImportCmd.Flags().StringVarP(&importProfile, "profile", "p", "", "Supplier profile name")
	catalogImportCmd.Flags().StringVar(&importSupplier, "supplier", "", "Supplier recorded on created products")
	_ = catalogImportCmd.MarkFlagRequired("file")

	catalogSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum results")

	catalogCmd.AddCommand(catalogSyncCmd, catalogImportCmd, catalogSearchCmd)
	rootCmd.AddCommand(catalogCmd)
}
