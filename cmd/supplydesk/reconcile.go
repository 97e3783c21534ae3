package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"supplydesk/internal/pipeline"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile CODE...",
	Short: "Match product codes against the local catalog snapshot",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return printJSON(a.Reconciler().Reconcile(cmd.Context(), args))
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract one supplier document, reconcile it and write a review workbook",
	RunE:  runOneShot,
}

var (
	runInput   string
	runProfile string
	runSender  string
	runOutput  string
)

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "Supplier document path")
	runCmd.Flags().StringVarP(&runProfile, "profile", "p", "", "Supplier profile name")
	runCmd.Flags().StringVar(&runSender, "sender", "", "Sender address used to pick a profile")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Review workbook path (default: OUTPUT_DIR/<input>.review.xlsx)")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(reconcileCmd, runCmd)
}

func runOneShot(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	profile, err := pickProfile(a.Profiles, runProfile, runSender)
	if err != nil {
		return err
	}
	res, err := a.Documents().ExtractPath(cmd.Context(), runInput, profile)
	if err != nil {
		return err
	}
	report := a.Reconciler().Reconcile(cmd.Context(), res.Codes)

	out := runOutput
	if out == "" {
		out = filepath.Join(cfg.OutputDir, filepath.Base(runInput)+".review.xlsx")
	}
	rows := pipeline.ReviewRows(filepath.Base(runInput), res, report)
	if err := pipeline.ExportReview(rows, out); err != nil {
		return err
	}
	if report.CatalogUnavailable {
		fmt.Fprintln(os.Stderr, "warning: catalog unavailable, no matches or suggestions")
	}
	fmt.Printf("run done profile=%s records=%d missed=%d matched=%d unmatched=%d output=%s\n",
		res.Profile, len(res.Records), res.Missed, report.Matched, report.Unmatched, out)
	return nil
}
