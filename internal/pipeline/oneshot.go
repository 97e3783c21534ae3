package pipeline

import (
	"context"
	"fmt"
	"os"

	"supplydesk/internal/extract"
)

// ExtractPath runs one file from disk through the extractor.
func (d *DocumentExtractor) ExtractPath(ctx context.Context, path string, profile extract.SupplierProfile) (extract.Result, error) {
	format, ok := DetectFormat(path, "")
	if !ok {
		return extract.Result{}, fmt.Errorf("unsupported input file: %s", path)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return extract.Result{}, err
	}
	return d.ExtractFile(ctx, path, format, blob, profile)
}
