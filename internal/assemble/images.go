package assemble

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"supplydesk/internal"
	"supplydesk/internal/docx"
)

// MinInlineImageBytes is the size below which inline image data is treated
// as absent.
const MinInlineImageBytes = 64

// ImageFetcher downloads remote images.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// resolveImages finds bytes for every line item at once. Each slot is the
// inline image, else the fetched URL, else the placeholder. Failures never
// abort the render.
func (a *Assembler) resolveImages(ctx context.Context, items []internal.LineItem) [][]byte {
	out := make([][]byte, len(items))
	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			out[i] = a.resolveImage(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (a *Assembler) resolveImage(ctx context.Context, item internal.LineItem) []byte {
	source := strings.TrimSpace(item.ImageSource)
	if data, ok := DecodeInlineImage(source); ok {
		return data
	}
	if isRemote(source) && a.fetcher != nil {
		fetchCtx := ctx
		if a.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, a.fetchTimeout)
			defer cancel()
		}
		started := time.Now()
		data, err := a.fetcher.Fetch(fetchCtx, source)
		if err == nil {
			if _, _, ok := docx.ImageFormat(data); ok {
				return data
			}
			a.logger.Warn("fetched image has unsupported format", "code", item.Code, "url", source)
		} else {
			a.logger.Warn("image fetch failed, using placeholder",
				"code", item.Code, "url", source, "error", err, "elapsed", time.Since(started))
		}
	}
	a.onFallback(item.Code)
	return a.placeholder
}

// DecodeInlineImage accepts a data URI or bare base64 holding a supported
// image of at least MinInlineImageBytes.
func DecodeInlineImage(source string) ([]byte, bool) {
	if source == "" || isRemote(source) {
		return nil, false
	}
	payload := source
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return nil, false
		}
		payload = payload[comma+1:]
	}
	payload = strings.Join(strings.Fields(payload), "")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, false
		}
	}
	if len(data) < MinInlineImageBytes {
		return nil, false
	}
	if _, _, ok := docx.ImageFormat(data); !ok {
		return nil, false
	}
	return data, true
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
