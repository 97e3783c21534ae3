package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"supplydesk/internal"
	"supplydesk/internal/docx"
	"supplydesk/internal/extract"
	"supplydesk/internal/metrics"
	"supplydesk/internal/reconcile"
	"supplydesk/internal/storage"
	"supplydesk/internal/util"
)

const (
	StatusFetched   = "fetched"
	StatusProcessed = "processed"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
)

// ErrUnreadableMessage marks a document whose stored raw message cannot be
// loaded or parsed. Such documents are set to failed.
var ErrUnreadableMessage = errors.New("unreadable inbound message")

type ProcessingService struct {
	db         *storage.DB
	registry   *extract.Registry
	documents  *DocumentExtractor
	reconciler *reconcile.Service
	metrics    *metrics.Registry
	logger     *slog.Logger
}

type ProcessorOptions struct {
	Converter Converter
	Metrics   *metrics.Registry
	Logger    *slog.Logger
}

func NewProcessingService(db *storage.DB, registry *extract.Registry, reconciler *reconcile.Service, opts ProcessorOptions) *ProcessingService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ProcessingService{
		db:         db,
		registry:   registry,
		documents:  NewDocumentExtractor(registry, opts.Converter, opts.Logger),
		reconciler: reconciler,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
}

type ProcessResult struct {
	DocumentID  int
	TraceID     string
	Profile     string
	Status      string
	Attachments int
	Failed      int
	Records     int
	Missed      int
	Matched     int
	Unmatched   int
}

type extractedFile struct {
	name   string
	result extract.Result
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (ProcessResult, error) {
	doc, err := s.db.GetInboundDocumentByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	if doc == nil {
		return ProcessResult{}, fmt.Errorf("inbound document not found: provider=%s messageId=%s", provider, messageID)
	}
	return s.ProcessDocument(ctx, *doc)
}

// ProcessPending handles fetched documents oldest first. Unreadable
// documents are marked failed and skipped; any other error stops the batch.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) ([]ProcessResult, error) {
	pending, err := s.db.ListInboundDocumentsByStatus(StatusFetched, limit)
	if err != nil {
		return nil, err
	}
	var out []ProcessResult
	for _, doc := range pending {
		if provider != "" && doc.Provider != provider {
			continue
		}
		res, err := s.ProcessDocument(ctx, doc)
		if errors.Is(err, ErrUnreadableMessage) {
			s.logger.Warn("skipping unreadable document", "document_id", doc.ID, "message_id", doc.MessageID, "error", err)
			out = append(out, res)
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *ProcessingService) ProcessDocument(ctx context.Context, doc internal.InboundDocument) (ProcessResult, error) {
	start := time.Now()
	res := ProcessResult{DocumentID: doc.ID, TraceID: uuid.NewString()}
	logger := s.logger.With("trace_id", res.TraceID, "document_id", doc.ID)

	raw, err := os.ReadFile(doc.RawRef)
	if err != nil {
		return s.fail(res, fmt.Errorf("%w %d: %w", ErrUnreadableMessage, doc.ID, err))
	}
	msg, err := ReadMessage(raw)
	if err != nil {
		return s.fail(res, fmt.Errorf("%w %d: %w", ErrUnreadableMessage, doc.ID, err))
	}

	profile := s.registry.ForSender(util.FirstNonEmpty(msg.From, doc.Sender))
	res.Profile = profile.Name
	logger = logger.With("profile", profile.Name)

	files := s.extractAll(ctx, msg, profile, logger, &res)
	extractDone := time.Now()

	var codes []string
	for _, f := range files {
		codes = append(codes, f.result.Codes...)
		res.Missed += f.result.Missed
	}
	res.Records = len(codes)

	if err := s.db.ClearDocumentProcessing(doc.ID); err != nil {
		return res, err
	}

	var report reconcile.Report
	if len(codes) > 0 {
		report = s.reconciler.Reconcile(ctx, codes)
		res.Matched, res.Unmatched = report.Matched, report.Unmatched
		if err := s.persist(doc.ID, files, report); err != nil {
			return res, err
		}
	}

	res.Status = StatusProcessed
	if res.Records == 0 {
		res.Status = StatusEmpty
	}
	if err := s.db.UpdateInboundDocumentStatus(doc.ID, res.Status); err != nil {
		return res, err
	}

	timings := map[string]float64{
		"extractMs": float64(extractDone.Sub(start).Milliseconds()),
		"totalMs":   float64(time.Since(start).Milliseconds()),
	}
	counts := map[string]int{
		"attachments": res.Attachments,
		"failed":      res.Failed,
		"records":     res.Records,
		"missed":      res.Missed,
		"matched":     res.Matched,
		"unmatched":   res.Unmatched,
	}
	if err := s.db.InsertRun(res.TraceID, doc.ID, timings, counts); err != nil {
		logger.Warn("run not recorded", "error", err)
	}
	s.observe(res, report)

	logger.Info("processed inbound document",
		"status", res.Status, "attachments", res.Attachments, "records", res.Records,
		"missed", res.Missed, "matched", res.Matched, "unmatched", res.Unmatched)
	return res, nil
}

func (s *ProcessingService) fail(res ProcessResult, cause error) (ProcessResult, error) {
	res.Status = StatusFailed
	if err := s.db.UpdateInboundDocumentStatus(res.DocumentID, StatusFailed); err != nil {
		return res, errors.Join(cause, err)
	}
	return res, cause
}

// extractAll reads every supported attachment. A structurally broken
// attachment is logged and skipped; it does not sink the whole message.
// Without attachments the HTML body tables, then the text body, are read.
func (s *ProcessingService) extractAll(ctx context.Context, msg Message, profile extract.SupplierProfile, logger *slog.Logger, res *ProcessResult) []extractedFile {
	var files []extractedFile
	for _, att := range msg.Attachments {
		res.Attachments++
		result, err := s.documents.ExtractFile(ctx, att.Name, att.Format, att.Content, profile)
		if err != nil {
			res.Failed++
			var structural *docx.StructuralError
			if errors.As(err, &structural) {
				logger.Warn("malformed attachment", "file", att.Name, "part", structural.Part, "reason", structural.Reason)
			} else {
				logger.Warn("attachment not extracted", "file", att.Name, "error", err)
			}
			continue
		}
		files = append(files, extractedFile{name: att.Name, result: result})
	}
	if len(msg.Attachments) > 0 {
		return files
	}

	if strings.Contains(strings.ToLower(msg.HTML), "<table") {
		result, err := s.documents.ExtractFile(ctx, "body.html", FormatHTML, []byte(msg.HTML), profile)
		if err == nil && len(result.Codes) > 0 {
			return append(files, extractedFile{name: "body.html", result: result})
		}
	}
	if strings.TrimSpace(msg.Text) != "" {
		result, err := s.documents.ExtractText(msg.Text, profile)
		if err != nil {
			logger.Warn("body not extracted", "error", err)
			return files
		}
		files = append(files, extractedFile{name: "body.txt", result: result})
	}
	return files
}

// persist stores records and their match results. Report results follow
// the order the codes were collected in.
func (s *ProcessingService) persist(documentID int, files []extractedFile, report reconcile.Report) error {
	i := 0
	for _, f := range files {
		for line, rec := range f.result.Records {
			if i >= len(report.Results) {
				return fmt.Errorf("reconcile report has %d results for more records", len(report.Results))
			}
			extractionID, err := s.db.InsertExtraction(documentID, f.name, f.result.Profile, line+1, rec)
			if err != nil {
				return err
			}
			if err := s.db.InsertMatch(extractionID, report.Results[i]); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

func (s *ProcessingService) observe(res ProcessResult, report reconcile.Report) {
	if s.metrics == nil {
		return
	}
	s.metrics.DocumentsProcessed.WithLabelValues(res.Profile, res.Status).Inc()
	s.metrics.RecordsExtracted.Add(float64(res.Records))
	s.metrics.RowsMissed.Add(float64(res.Missed))
	s.metrics.ExactMatches.Add(float64(res.Matched))
	s.metrics.UnmatchedCodes.Add(float64(res.Unmatched))
	if report.FuzzySkipped {
		s.metrics.FuzzySkipped.Inc()
	}
	if report.CatalogUnavailable {
		s.metrics.CatalogUnavailable.Inc()
	}
}
