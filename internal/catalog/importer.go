package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"supplydesk/internal"
	"supplydesk/internal/metrics"
)

const DefaultImportBatchSize = 5

type ImageStore interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
}

type ImportError struct {
	Code string
	Err  error
}

func (e ImportError) Error() string { return e.Code + ": " + e.Err.Error() }

type ImportResult struct {
	Created []internal.CatalogEntry
	Failed  int
	Errors  []ImportError
}

// Importer commits operator-approved records to the catalog in fixed-size
// concurrent batches.
type Importer struct {
	writer    Writer
	images    ImageStore
	batchSize int
	supplier  string
	logger    *slog.Logger
	metrics   *metrics.Registry
}

type ImporterOptions struct {
	BatchSize int
	Supplier  string
	Logger    *slog.Logger
	Metrics   *metrics.Registry
}

func NewImporter(writer Writer, images ImageStore, opts ImporterOptions) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultImportBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Importer{
		writer:    writer,
		images:    images,
		batchSize: opts.BatchSize,
		supplier:  opts.Supplier,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Import creates one catalog entry per record. A failing record never
// stops the others; batches run one after another.
func (i *Importer) Import(ctx context.Context, records []internal.ExtractedRecord) (ImportResult, error) {
	var result ImportResult
	for start := 0; start < len(records); start += i.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := min(start+i.batchSize, len(records))
		batch := records[start:end]

		created := make([]*internal.CatalogEntry, len(batch))
		failures := make([]error, len(batch))
		var g errgroup.Group
		for idx := range batch {
			g.Go(func() error {
				entry, err := i.importOne(ctx, batch[idx])
				if err != nil {
					failures[idx] = err
					return nil
				}
				created[idx] = &entry
				return nil
			})
		}
		_ = g.Wait()

		for idx := range batch {
			if failures[idx] != nil {
				result.Failed++
				result.Errors = append(result.Errors, ImportError{Code: batch[idx].Code, Err: failures[idx]})
				i.logger.Warn("catalog import failed", "code", batch[idx].Code, "error", failures[idx])
				continue
			}
			result.Created = append(result.Created, *created[idx])
		}
	}

	if i.metrics != nil {
		i.metrics.ImportCreated.Add(float64(len(result.Created)))
		i.metrics.ImportFailed.Add(float64(result.Failed))
	}
	i.logger.Info("catalog import finished", "created", len(result.Created), "failed", result.Failed)
	return result, nil
}

func (i *Importer) importOne(ctx context.Context, rec internal.ExtractedRecord) (internal.CatalogEntry, error) {
	code := strings.TrimSpace(rec.Code)
	if code == "" {
		return internal.CatalogEntry{}, errors.New("empty code")
	}

	entry := internal.CatalogEntry{
		Code:        code,
		Description: strings.TrimSpace(rec.Description),
		Link:        rec.Link,
		Brand:       rec.Brand,
		Keywords:    rec.Keywords,
		Area:        rec.Area,
	}
	if i.supplier != "" {
		entry.Supplier = &i.supplier
	}

	if len(rec.ImageBytes) > 0 {
		if i.images == nil {
			return internal.CatalogEntry{}, errors.New("no image store configured")
		}
		url, err := i.images.Put(ctx, rec.ImageBytes, http.DetectContentType(rec.ImageBytes))
		if err != nil {
			return internal.CatalogEntry{}, fmt.Errorf("store image: %w", err)
		}
		entry.ImageURL = url
	}

	return i.writer.CreateProduct(ctx, entry)
}
