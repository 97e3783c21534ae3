package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"supplydesk/internal"
	"supplydesk/internal/config"
	"supplydesk/internal/util"
)

const maxAttempts = 5

// Client pulls catalog pages from the remote catalog API.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *http.Client
	limiter    *RateLimiter
	sleep      func(time.Duration)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type pagePayload struct {
	Products []map[string]any `json:"products"`
	NextPage *int             `json:"nextPage"`
	Total    *int             `json:"total"`
}

func NewClient(cfg config.Config) *Client {
	pageSize := cfg.CatalogPageSize
	if pageSize <= 0 {
		pageSize = 200
	}
	return &Client{
		baseURL:    cfg.CatalogAPIBaseURL,
		token:      cfg.CatalogAPIToken,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: time.Duration(cfg.CatalogTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.CatalogRateLimitRPS),
		sleep:      time.Sleep,
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]internal.CatalogEntry, error) {
	return c.listPages(ctx, map[string]string{})
}

// ListUpdatedSince pulls only entries changed after since.
func (c *Client) ListUpdatedSince(ctx context.Context, since time.Time) ([]internal.CatalogEntry, error) {
	return c.listPages(ctx, map[string]string{"updatedSince": since.UTC().Format(time.RFC3339)})
}

func (c *Client) listPages(ctx context.Context, params map[string]string) ([]internal.CatalogEntry, error) {
	all := make([]internal.CatalogEntry, 0)
	seen := map[int]struct{}{}
	page := 1

	for {
		query := map[string]string{
			"page":     strconv.Itoa(page),
			"pageSize": strconv.Itoa(c.pageSize),
		}
		for k, v := range params {
			query[k] = v
		}

		body, err := c.fetchJSON(ctx, "products", query)
		if err != nil {
			return nil, err
		}

		var payload pagePayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode catalog page %d: %w", page, err)
		}

		for _, raw := range payload.Products {
			entry, err := toCatalogEntry(raw)
			if err != nil {
				continue
			}
			all = append(all, entry)
		}

		seen[page] = struct{}{}
		if payload.NextPage == nil || len(payload.Products) == 0 {
			break
		}
		if _, ok := seen[*payload.NextPage]; ok {
			break
		}
		page = *payload.NextPage
	}

	return all, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(c.token) == "" {
		return nil, errors.New("missing CATALOG_API_TOKEN")
	}

	u, err := url.Parse(strings.TrimRight(c.baseURL, "/") + "/" + endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
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

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
				c.sleep(backoff(attempt))
				lastErr = fmt.Errorf("catalog status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("catalog api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("catalog api unsuccessful: %s %s", apiResp.Message, string(apiResp.Errors))
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("catalog request failed")
	}
	return nil, lastErr
}

func backoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func toCatalogEntry(raw map[string]any) (internal.CatalogEntry, error) {
	code := util.Deref(toStringPtr(raw["code"]))
	if code == "" {
		return internal.CatalogEntry{}, errors.New("empty code")
	}
	id, ok := toInt(raw["id"])
	if !ok {
		return internal.CatalogEntry{}, errors.New("missing id")
	}

	return internal.CatalogEntry{
		ID:          id,
		Code:        code,
		Description: util.Deref(toStringPtr(raw["description"])),
		ImageURL:    util.Deref(toStringPtr(raw["imageUrl"])),
		Link:        toStringPtr(raw["link"]),
		Brand:       toStringPtr(raw["brand"]),
		Keywords:    toKeywords(raw["keywords"]),
		Area:        toStringPtr(raw["area"]),
		ProductType: toStringPtr(raw["productType"]),
		Supplier:    toStringPtr(raw["supplier"]),
	}, nil
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	default:
		return 0, false
	}
}

func toStringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return util.StringPtr(s)
}

// toKeywords accepts either a string or a list of strings.
func toKeywords(v any) *string {
	arr, ok := v.([]any)
	if !ok {
		return toStringPtr(v)
	}
	parts := make([]string, 0, len(arr))
	for _, item := range arr {
		if s := toStringPtr(item); s != nil {
			parts = append(parts, *s)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return util.StringPtr(strings.Join(parts, ", "))
}
