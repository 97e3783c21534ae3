// Package connectors fetches supplier quote emails from a mailbox and
// stores them raw for later processing.
package connectors

import (
	"context"
	"fmt"

	"supplydesk/internal"
	"supplydesk/internal/config"
	"supplydesk/internal/connectors/gmail"
	"supplydesk/internal/connectors/imap"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}

func New(ctx context.Context, cfg config.Config, provider string) (MailConnector, error) {
	switch provider {
	case "gmail":
		return gmail.NewConnector(ctx, cfg)
	case "imap":
		return imap.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
