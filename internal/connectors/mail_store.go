package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"supplydesk/internal"
)

type DocumentStore interface {
	GetInboundDocumentByProviderMessageID(provider, messageID string) (*internal.InboundDocument, error)
	UpsertInboundDocument(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.InboundDocument, error)
}

// MailStoreService keeps one .eml per content hash and an inbound
// document row per provider message.
type MailStoreService struct {
	db         DocumentStore
	rawMailDir string
}

func NewMailStoreService(db DocumentStore, rawMailDir string) *MailStoreService {
	return &MailStoreService{db: db, rawMailDir: rawMailDir}
}

// Store reports whether the message was new.
func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.InboundDocument, bool, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	existing, err := s.db.GetInboundDocumentByProviderMessageID(msg.Provider, msg.MessageID)
	if err != nil {
		return internal.InboundDocument{}, false, err
	}
	if existing != nil && existing.Hash == hash {
		return *existing, false, nil
	}

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.InboundDocument{}, false, err
	}
	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.InboundDocument{}, false, err
		}
	}

	doc, err := s.db.UpsertInboundDocument(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "fetched")
	return doc, true, err
}
