package connectors

import (
	"context"
	"log/slog"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
	logger    *slog.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
	Skipped int
}

func NewFetchService(db DocumentStore, rawMailDir string, connector MailConnector, logger *slog.Logger) *FetchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		logger:    logger,
	}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		doc, isNew, err := s.store.Store(msg)
		if err != nil {
			return result, err
		}
		if !isNew {
			result.Skipped++
			continue
		}
		result.Stored++
		s.logger.Debug("stored inbound document", "id", doc.ID, "provider", doc.Provider, "sender", doc.Sender)
	}

	return result, nil
}
