package listener

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"supplydesk/internal"
	"supplydesk/internal/connectors"
	"supplydesk/internal/pipeline"
)

const StatusExported = "exported"

type Fetcher interface {
	FetchAndStore(ctx context.Context, label string, max int) (connectors.FetchResult, error)
}

type Processor interface {
	ProcessPending(ctx context.Context, limit int, provider string) ([]pipeline.ProcessResult, error)
}

type Store interface {
	pipeline.ReviewSource
	GetInboundDocumentByID(id int) (*internal.InboundDocument, error)
	UpdateInboundDocumentStatus(documentID int, status string) error
}

type Options struct {
	Provider     string
	Label        string
	Interval     time.Duration
	FetchMax     int
	ProcessBatch int
	AutoExport   bool
	OutputDir    string
}

// Service polls the mailbox, processes new supplier documents and writes
// their review workbooks.
type Service struct {
	store     Store
	fetcher   Fetcher
	processor Processor
	opts      Options
	logger    *slog.Logger
}

type CycleResult struct {
	Fetched   int
	Stored    int
	Processed int
	Exported  int
}

func NewService(store Store, fetcher Fetcher, processor Processor, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	opts.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	return &Service{store: store, fetcher: fetcher, processor: processor, opts: opts, logger: logger}
}

// Run loops until ctx is cancelled. Cycle errors are logged, not returned.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.logger.Error("listener cycle failed", "provider", s.opts.Provider, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	fetched, err := s.fetcher.FetchAndStore(ctx, s.opts.Label, s.opts.FetchMax)
	if err != nil {
		return res, fmt.Errorf("fetch: %w", err)
	}
	res.Fetched, res.Stored = fetched.Fetched, fetched.Stored

	processed, err := s.processor.ProcessPending(ctx, s.opts.ProcessBatch, s.opts.Provider)
	res.Processed = len(processed)
	if err != nil {
		return res, fmt.Errorf("process: %w", err)
	}

	if s.opts.AutoExport {
		for _, p := range processed {
			if p.Status != pipeline.StatusProcessed {
				continue
			}
			if err := s.export(p.DocumentID); err != nil {
				return res, err
			}
			res.Exported++
		}
	}

	s.logger.Info("listener cycle done",
		"provider", s.opts.Provider, "fetched", res.Fetched, "stored", res.Stored,
		"processed", res.Processed, "exported", res.Exported)
	return res, nil
}

func (s *Service) export(documentID int) error {
	doc, err := s.store.GetInboundDocumentByID(documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("inbound document %d vanished", documentID)
	}
	rows, err := s.store.GetReviewRows(documentID)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("%d_%s.xlsx", doc.ID, sanitizeMessageID(doc.MessageID))
	outputPath := filepath.Join(s.opts.OutputDir, "listener", filename)
	if err := pipeline.ExportReview(rows, outputPath); err != nil {
		return err
	}
	s.logger.Debug("exported review", "document_id", doc.ID, "path", outputPath)
	return s.store.UpdateInboundDocumentStatus(doc.ID, StatusExported)
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "", ">", "", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "@", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
