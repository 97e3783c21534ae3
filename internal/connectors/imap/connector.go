// Package imap polls a mailbox for unread supplier quotes.
package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"supplydesk/internal"
	"supplydesk/internal/config"
)

const provider = "imap"

type Connector struct {
	addr     string
	tls      *tls.Config
	user     string
	password string
	markSeen bool
}

func NewConnector(cfg config.Config) (*Connector, error) {
	for _, req := range []struct{ name, value string }{
		{"IMAP_HOST", cfg.IMAPHost},
		{"IMAP_USER", cfg.IMAPUser},
		{"IMAP_PASSWORD", cfg.IMAPPassword},
	} {
		if err := cfg.Require(req.name, req.value); err != nil {
			return nil, err
		}
	}

	c := &Connector{
		addr:     fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort),
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		markSeen: cfg.IMAPMarkSeen,
	}
	if cfg.IMAPSecure {
		c.tls = &tls.Config{ServerName: cfg.IMAPHost}
	}
	return c, nil
}

// FetchInbox returns up to max of the newest unread messages in the mailbox
// named by label. Messages are addressed by UID so that the seen flag lands
// on the same messages even if the mailbox is expunged meanwhile.
func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	client, err := c.open(ctx, label)
	if err != nil {
		return nil, err
	}
	defer client.Logout()

	// A cancelled context tears the connection down, which unblocks any
	// command in flight.
	stop := context.AfterFunc(ctx, func() { _ = client.Terminate() })
	defer stop()

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := client.UidSearch(criteria)
	if err != nil {
		return nil, c.wrap(ctx, "search unread", err)
	}
	uids = newest(uids, max)
	if len(uids) == 0 {
		return nil, nil
	}

	out, fetched, err := c.fetch(client, uids)
	if err != nil {
		return nil, c.wrap(ctx, "fetch", err)
	}

	if c.markSeen && !fetched.Empty() {
		flags := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := client.UidStore(fetched, flags, []interface{}{imap.SeenFlag}, nil); err != nil {
			return nil, c.wrap(ctx, "mark seen", err)
		}
	}
	return out, nil
}

func (c *Connector) open(ctx context.Context, mailbox string) (*imapclient.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		client *imapclient.Client
		err    error
	)
	if c.tls != nil {
		client, err = imapclient.DialTLS(c.addr, c.tls)
	} else {
		client, err = imapclient.Dial(c.addr)
	}
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", c.addr, err)
	}
	if err := client.Login(c.user, c.password); err != nil {
		_ = client.Logout()
		return nil, fmt.Errorf("imap login %s: %w", c.user, err)
	}
	if _, err := client.Select(mailbox, false); err != nil {
		_ = client.Logout()
		return nil, fmt.Errorf("imap select %s: %w", mailbox, err)
	}
	return client, nil
}

// fetch downloads the full RFC 822 source of every uid. The returned set
// holds the uids that were actually read.
func (c *Connector) fetch(client *imapclient.Client, uids []uint32) ([]internal.FetchedMailMessage, *imap.SeqSet, error) {
	set := new(imap.SeqSet)
	set.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}
	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() { done <- client.UidFetch(set, items, messages) }()

	out := make([]internal.FetchedMailMessage, 0, len(uids))
	fetched := new(imap.SeqSet)
	var readErr error
	for msg := range messages {
		if msg == nil || readErr != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			readErr = fmt.Errorf("read message uid %d: %w", msg.Uid, err)
			continue
		}
		out = append(out, toFetched(msg, raw, time.Now()))
		fetched.AddNum(msg.Uid)
	}
	if err := <-done; err != nil {
		return nil, nil, err
	}
	if readErr != nil {
		return nil, nil, readErr
	}
	return out, fetched, nil
}

func (c *Connector) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}
	return fmt.Errorf("imap %s: %w", op, err)
}

// newest keeps the max highest uids, which are the most recent arrivals.
func newest(uids []uint32, max int) []uint32 {
	if max <= 0 || len(uids) <= max {
		return uids
	}
	sorted := slices.Clone(uids)
	slices.Sort(sorted)
	return sorted[len(sorted)-max:]
}

// toFetched maps an IMAP message onto the provider-neutral form. Messages
// without a Message-ID header are keyed by uid.
func toFetched(msg *imap.Message, raw []byte, now time.Time) internal.FetchedMailMessage {
	out := internal.FetchedMailMessage{
		Provider:   provider,
		MessageID:  fmt.Sprintf("imap-%d", msg.Uid),
		ReceivedAt: now.UTC().Format(time.RFC3339),
		Raw:        raw,
	}
	if env := msg.Envelope; env != nil {
		if id := strings.TrimSpace(env.MessageId); id != "" {
			out.MessageID = id
		}
		out.Subject = env.Subject
		out.From = formatAddresses(env.From)
	}
	if !msg.InternalDate.IsZero() {
		out.ReceivedAt = msg.InternalDate.UTC().Format(time.RFC3339)
	}
	return out
}

func formatAddresses(addrs []*imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := a.Address()
		if a.PersonalName == "" {
			parts = append(parts, email)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s <%s>", a.PersonalName, email))
	}
	return strings.Join(parts, ", ")
}
