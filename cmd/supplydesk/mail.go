package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"supplydesk/internal/pipeline"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Fetch and process supplier mail",
}

var mailFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch messages with attachments and store them as inbound documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fetcher, err := a.Fetcher(cmd.Context(), strings.ToLower(mailProvider))
		if err != nil {
			return err
		}
		label := mailLabel
		if label == "" {
			label = cfg.MailListenerLabel
		}
		res, err := fetcher.FetchAndStore(cmd.Context(), label, mailMax)
		if err != nil {
			return err
		}
		fmt.Printf("mail fetch done fetched=%d stored=%d skipped=%d\n", res.Fetched, res.Stored, res.Skipped)
		return nil
	},
}

var mailProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Extract and reconcile fetched documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		svc := a.Processor()
		var results []pipeline.ProcessResult
		if mailMessageID != "" {
			res, err := svc.ProcessByProviderMessageID(cmd.Context(), strings.ToLower(mailProvider), mailMessageID)
			if err != nil {
				return err
			}
			results = append(results, res)
		} else {
			results, err = svc.ProcessPending(cmd.Context(), mailBatch, strings.ToLower(mailProvider))
			if err != nil {
				return err
			}
		}
		for _, r := range results {
			fmt.Printf("document=%d trace=%s profile=%s status=%s records=%d matched=%d unmatched=%d\n",
				r.DocumentID, r.TraceID, r.Profile, r.Status, r.Records, r.Matched, r.Unmatched)
		}
		fmt.Printf("mail process done documents=%d\n", len(results))
		return nil
	},
}

var mailListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Poll the mailbox and process new documents until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return listen(ctx)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the review workbook for a processed document",
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		dir := exportOutDir
		if dir == "" {
			dir = cfg.OutputDir
		}
		path, err := pipeline.ExportDocument(a.DB, exportDocumentID, dir)
		if err != nil {
			return err
		}
		fmt.Printf("export done document=%d output=%s\n", exportDocumentID, path)
		return nil
	},
}

var (
	mailProvider     string
	mailLabel        string
	mailMax          int
	mailMessageID    string
	mailBatch        int
	exportDocumentID int
	exportOutDir     string
)

func init() {
	mailCmd.PersistentFlags().StringVar(&mailProvider, "provider", "imap", "gmail|imap")

	mailFetchCmd.Flags().StringVar(&mailLabel, "label", "", "Mailbox or label (default: MAIL_LISTENER_LABEL)")
	mailFetchCmd.Flags().IntVar(&mailMax, "max", 10, "Maximum messages to fetch")

	mailProcessCmd.Flags().StringVar(&mailMessageID, "message-id", "", "Process one message by provider message id")
	mailProcessCmd.Flags().IntVar(&mailBatch, "batch", 20, "Maximum pending documents to process")

	exportCmd.Flags().IntVar(&exportDocumentID, "document-id", 0, "Inbound document id")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "", "Output directory (default: OUTPUT_DIR)")
	_ = exportCmd.MarkFlagRequired("document-id")

	mailCmd.AddCommand(mailFetchCmd, mailProcessCmd, mailListenCmd)
	rootCmd.AddCommand(mailCmd, exportCmd)
}

func listen(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.ServeMetrics(ctx)
	svc, err := a.Listener(ctx)
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}
