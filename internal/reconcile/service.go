package reconcile

import (
	"context"
	"log/slog"
	"time"

	"supplydesk/internal"
)

// Snapshotter supplies the catalog view used for a single reconciliation.
type Snapshotter interface {
	ListAll(ctx context.Context, limit int) ([]internal.CatalogEntry, error)
}

// Service fetches a fresh catalog snapshot per call. A catalog failure is
// not fatal: every code comes back unmatched with no suggestions.
type Service struct {
	catalog Snapshotter
	engine  *Engine
	limit   int
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(catalog Snapshotter, engine *Engine, limit int, timeout time.Duration, logger *slog.Logger) *Service {
	if engine == nil {
		engine = NewEngine(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: catalog, engine: engine, limit: limit, timeout: timeout, logger: logger}
}

func (s *Service) Reconcile(ctx context.Context, codes []string) Report {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	started := time.Now()
	snapshot, err := s.catalog.ListAll(ctx, s.limit)
	if err != nil {
		s.logger.Warn("catalog snapshot unavailable", "error", err, "codes", len(codes))
		report := s.engine.Reconcile(codes, nil)
		report.CatalogUnavailable = true
		return report
	}
	report := s.engine.Reconcile(codes, snapshot)
	s.logger.Info("reconciled codes",
		"codes", len(codes), "catalog", len(snapshot),
		"matched", report.Matched, "unmatched", report.Unmatched,
		"fuzzy_skipped", report.FuzzySkipped, "elapsed", time.Since(started))
	return report
}
