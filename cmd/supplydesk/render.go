package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"supplydesk/internal"
	"supplydesk/internal/assemble"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an order document from a JSON render request",
	RunE:  runRender,
}

var (
	renderRequest string
	renderOutDir  string
	renderFormat  string
)

func init() {
	renderCmd.Flags().StringVarP(&renderRequest, "request", "r", "", "Render request JSON file")
	renderCmd.Flags().StringVarP(&renderOutDir, "out", "o", "", "Output directory (default: OUTPUT_DIR)")
	renderCmd.Flags().StringVar(&renderFormat, "format", "docx", "docx|pdf")
	_ = renderCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	if renderFormat != "docx" && renderFormat != "pdf" {
		return fmt.Errorf("unsupported format %q", renderFormat)
	}
	blob, err := os.ReadFile(renderRequest)
	if err != nil {
		return err
	}
	var req internal.RenderRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		return fmt.Errorf("decode render request: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	assembler, err := a.Assembler()
	if err != nil {
		return err
	}

	started := time.Now()
	var doc internal.RenderedDocument
	if renderFormat == "pdf" {
		doc, err = assembler.RenderPDF(cmd.Context(), req)
	} else {
		doc, err = assembler.Render(cmd.Context(), req)
	}
	a.Metrics.RenderLatencySec.Observe(time.Since(started).Seconds())

	var convErr *assemble.ConversionError
	if errors.As(err, &convErr) {
		a.Metrics.ConversionFailures.Inc()
		fmt.Fprintf(os.Stderr, "warning: %v; writing %s instead\n", convErr, convErr.Document.Filename)
		doc, err = convErr.Document, nil
	}
	if err != nil {
		return err
	}
	a.Metrics.DocumentsRendered.Inc()

	dir := renderOutDir
	if dir == "" {
		dir = cfg.OutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, doc.Filename)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return err
	}
	fmt.Printf("rendered %s (%s, %d bytes)\n", path, doc.ContentType, len(doc.Data))
	return nil
}
