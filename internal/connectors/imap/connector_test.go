package imap

import (
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal/config"
)

func TestNewConnectorRequiresCredentials(t *testing.T) {
	_, err := NewConnector(config.Config{IMAPHost: "mail.example.com", IMAPUser: "orders"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMAP_PASSWORD")

	c, err := NewConnector(config.Config{IMAPHost: "mail.example.com", IMAPPort: 993, IMAPSecure: true, IMAPUser: "orders", IMAPPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com:993", c.addr)
	require.NotNil(t, c.tls)
	assert.Equal(t, "mail.example.com", c.tls.ServerName)
}

func TestNewestKeepsHighestUIDs(t *testing.T) {
	assert.Equal(t, []uint32{7, 9}, newest([]uint32{9, 3, 7, 1}, 2))
	assert.Equal(t, []uint32{4, 2}, newest([]uint32{4, 2}, 5))
	assert.Equal(t, []uint32{4, 2}, newest([]uint32{4, 2}, 0))
}

func TestToFetchedUsesEnvelope(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	msg := &imap.Message{
		Uid:          42,
		InternalDate: time.Date(2026, 10, 18, 22, 15, 0, 0, time.FixedZone("AEST", 10*3600)),
		Envelope: &imap.Envelope{
			MessageId: "<q-42@acme.test>",
			Subject:   "Quote 42",
			From: []*imap.Address{
				{PersonalName: "Acme Sales", MailboxName: "sales", HostName: "acme.test"},
				nil,
				{MailboxName: "copy", HostName: "acme.test"},
			},
		},
	}

	got := toFetched(msg, []byte("raw"), now)
	assert.Equal(t, "imap", got.Provider)
	assert.Equal(t, "<q-42@acme.test>", got.MessageID)
	assert.Equal(t, "Quote 42", got.Subject)
	assert.Equal(t, "Acme Sales <sales@acme.test>, copy@acme.test", got.From)
	assert.Equal(t, "2026-10-18T12:15:00Z", got.ReceivedAt)
	assert.Equal(t, []byte("raw"), got.Raw)
}

func TestToFetchedFallsBackToUID(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	got := toFetched(&imap.Message{Uid: 7}, nil, now)
	assert.Equal(t, "imap-7", got.MessageID)
	assert.Equal(t, "2026-10-19T09:00:00Z", got.ReceivedAt)
	assert.Empty(t, got.From)
}
