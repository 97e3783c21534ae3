package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"supplydesk/internal/extract"
	"supplydesk/internal/tables"
)

type Converter interface {
	Convert(ctx context.Context, data []byte, from, to string) ([]byte, error)
}

// DocumentExtractor turns one supplier file into an extraction result.
// Column-mapped profiles need tables; when a PDF cannot be converted into
// a table document the heuristic fallback profile reads its text instead.
type DocumentExtractor struct {
	extractor *extract.Extractor
	fallback  extract.SupplierProfile
	converter Converter
	logger    *slog.Logger
}

func NewDocumentExtractor(registry *extract.Registry, converter Converter, logger *slog.Logger) *DocumentExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	fallback, _ := registry.Get("generic")
	return &DocumentExtractor{
		extractor: extract.NewExtractor(logger),
		fallback:  fallback,
		converter: converter,
		logger:    logger,
	}
}

func (d *DocumentExtractor) ExtractFile(ctx context.Context, name string, format Format, content []byte, profile extract.SupplierProfile) (extract.Result, error) {
	var doc *tables.Document
	var err error
	switch format {
	case FormatDOCX:
		doc, err = tables.FromDOCX(content)
	case FormatXLSX:
		doc, err = tables.FromXLSX(content)
	case FormatHTML:
		doc, err = tables.FromHTML(string(content))
	case FormatPDF:
		return d.extractPDF(ctx, name, content, profile)
	case FormatText:
		res, err := d.ExtractText(string(content), profile)
		res.Source = tables.SourceText
		return res, err
	default:
		return extract.Result{}, fmt.Errorf("unsupported format %q for %s", format, name)
	}
	if err != nil {
		return extract.Result{}, fmt.Errorf("read %s: %w", name, err)
	}
	return d.extractor.Extract(doc, profile)
}

// ExtractText reads free text, swapping a column profile for the
// heuristic fallback.
func (d *DocumentExtractor) ExtractText(text string, profile extract.SupplierProfile) (extract.Result, error) {
	if normalized, err := profile.Normalized(); err != nil || !normalized.Kind.Heuristic() {
		profile = d.fallback
	}
	return d.extractor.ExtractText(text, profile)
}

func (d *DocumentExtractor) extractPDF(ctx context.Context, name string, content []byte, profile extract.SupplierProfile) (extract.Result, error) {
	normalized, err := profile.Normalized()
	if err != nil {
		return extract.Result{}, err
	}
	if !normalized.Kind.Heuristic() && d.converter != nil {
		res, err := d.convertPDF(ctx, content, normalized)
		if err == nil {
			return res, nil
		}
		d.logger.Warn("pdf table extraction failed, using text", "file", name, "error", err)
	}

	text, err := extract.PDFText(content)
	if err != nil {
		return extract.Result{}, fmt.Errorf("read pdf %s: %w", name, err)
	}
	res, err := d.ExtractText(text, normalized)
	res.Source = tables.SourcePDF
	return res, err
}

func (d *DocumentExtractor) convertPDF(ctx context.Context, content []byte, profile extract.SupplierProfile) (extract.Result, error) {
	converted, err := d.converter.Convert(ctx, content, string(FormatPDF), string(FormatDOCX))
	if err != nil {
		return extract.Result{}, err
	}
	doc, err := tables.FromDOCX(converted)
	if err != nil {
		return extract.Result{}, err
	}
	return d.extractor.Extract(doc, profile)
}
