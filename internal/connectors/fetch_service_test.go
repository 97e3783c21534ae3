package connectors

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal"
	"supplydesk/internal/config"
	"supplydesk/internal/storage"
)

type staticConnector struct {
	messages []internal.FetchedMailMessage
}

func (s staticConnector) FetchInbox(_ context.Context, _ string, max int) ([]internal.FetchedMailMessage, error) {
	if len(s.messages) > max {
		return s.messages[:max], nil
	}
	return s.messages, nil
}

func TestFetchAndStoreSkipsUnchangedMessages(t *testing.T) {
	db, err := storage.Open(t.TempDir() + "/mail.sqlite")
	require.NoError(t, err)
	defer db.Close()

	rawDir := t.TempDir()
	conn := staticConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<1@acme.test>", Subject: "Quote 1", From: "Sales <sales@acme.test>", ReceivedAt: "2026-10-19T08:00:00Z", Raw: []byte("Subject: Quote 1\r\n\r\nhello")},
		{Provider: "imap", MessageID: "<2@acme.test>", Subject: "Quote 2", From: "sales@acme.test", ReceivedAt: "2026-10-19T09:00:00Z", Raw: []byte("Subject: Quote 2\r\n\r\nhello")},
	}}
	svc := NewFetchService(db, rawDir, conn, nil)

	first, err := svc.FetchAndStore(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Stored: 2}, first)

	second, err := svc.FetchAndStore(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Skipped: 2}, second)

	docs, err := db.ListInboundDocumentsByStatus("fetched", 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	raw, err := os.ReadFile(docs[0].RawRef)
	require.NoError(t, err)
	assert.Equal(t, "Subject: Quote 1\r\n\r\nhello", string(raw))
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.Config{}, "pop3")
	assert.Error(t, err)
}
