// Package convert talks to the external document conversion service.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"supplydesk/internal/config"
)

const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"

	maxAttempts = 3
)

var contentTypes = map[string]string{
	FormatPDF:  "application/pdf",
	FormatDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Error represents a failed conversion.
type Error struct {
	From    string
	To      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("convert %s->%s: %s: %v", e.From, e.To, e.Message, e.Cause)
	}
	return fmt.Sprintf("convert %s->%s: %s", e.From, e.To, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	sleep      func(time.Duration)
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.ConvertAPIBaseURL, "/"),
		token:      cfg.ConvertAPIToken,
		httpClient: &http.Client{Timeout: cfg.ConvertTimeout},
		sleep:      time.Sleep,
	}
}

// Convert posts the document and returns the converted bytes. Transport
// failures and 429/5xx responses are retried.
func (c *Client) Convert(ctx context.Context, data []byte, from, to string) ([]byte, error) {
	from, to = strings.ToLower(from), strings.ToLower(to)
	if c.baseURL == "" {
		return nil, &Error{From: from, To: to, Message: "missing CONVERT_API_BASE_URL"}
	}
	if _, ok := contentTypes[from]; !ok {
		return nil, &Error{From: from, To: to, Message: "unsupported source format"}
	}
	if _, ok := contentTypes[to]; !ok {
		return nil, &Error{From: from, To: to, Message: "unsupported target format"}
	}

	u, err := url.Parse(c.baseURL + "/convert")
	if err != nil {
		return nil, &Error{From: from, To: to, Message: "invalid base URL", Cause: err}
	}
	q := u.Query()
	q.Set("from", from)
	q.Set("to", to)
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
		if err != nil {
			return nil, &Error{From: from, To: to, Message: "build request", Cause: err}
		}
		req.Header.Set("Content-Type", contentTypes[from])
		req.Header.Set("Accept", contentTypes[to])
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &Error{From: from, To: to, Message: "cancelled", Cause: ctx.Err()}
			}
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode != http.StatusOK {
			if retryable(resp.StatusCode) && attempt < maxAttempts {
				lastErr = fmt.Errorf("status %d", resp.StatusCode)
				c.sleep(time.Duration(500*(1<<(attempt-1))+rand.Intn(200)) * time.Millisecond)
				continue
			}
			return nil, &Error{From: from, To: to, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
		}
		if len(body) == 0 {
			return nil, &Error{From: from, To: to, Message: "empty response"}
		}
		return body, nil
	}

	return nil, &Error{From: from, To: to, Message: "retries exhausted", Cause: lastErr}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
