package catalog

import (
	"context"
	"log/slog"
	"time"

	"supplydesk/internal"
)

const lastSyncKey = "catalog.last_sync"

type Source interface {
	ListProducts(ctx context.Context) ([]internal.CatalogEntry, error)
	ListUpdatedSince(ctx context.Context, since time.Time) ([]internal.CatalogEntry, error)
}

// SyncService refreshes the local catalog snapshot the reconciler reads.
type SyncService struct {
	store  Store
	source Source
	logger *slog.Logger
	now    func() time.Time
}

func NewSyncService(store Store, source Source, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{store: store, source: source, logger: logger, now: time.Now}
}

func (s *SyncService) FullSync(ctx context.Context) (int, error) {
	started := s.now().UTC()
	products, err := s.source.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.store.UpsertProducts(products); err != nil {
		return 0, err
	}
	if err := s.store.SetMetadata(lastSyncKey, started.Format(time.RFC3339)); err != nil {
		return 0, err
	}
	s.logger.Info("catalog full sync", "products", len(products))
	return len(products), nil
}

// IncrementalSync pulls changes since the last recorded sync and falls
// back to a full pull when none is recorded.
func (s *SyncService) IncrementalSync(ctx context.Context) (int, error) {
	last, err := s.store.GetMetadata(lastSyncKey)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return s.FullSync(ctx)
	}
	since, err := time.Parse(time.RFC3339, *last)
	if err != nil {
		s.logger.Warn("unreadable catalog sync marker, running full sync", "value", *last)
		return s.FullSync(ctx)
	}

	started := s.now().UTC()
	products, err := s.source.ListUpdatedSince(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(products) > 0 {
		if err := s.store.UpsertProducts(products); err != nil {
			return 0, err
		}
	}
	if err := s.store.SetMetadata(lastSyncKey, started.Format(time.RFC3339)); err != nil {
		return 0, err
	}
	s.logger.Info("catalog incremental sync", "products", len(products), "since", since)
	return len(products), nil
}
