// Package blob persists product images and fetches remote ones.
package blob

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"

	"supplydesk/internal/config"
)

type Store interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
}

// New picks the backend named by BLOB_BACKEND.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.BlobBackend {
	case "", "local":
		return NewLocalStore(cfg.BlobLocalDir, cfg.BlobPublicBaseURL), nil
	case "gcs":
		if err := cfg.Require("GCS_BUCKET", cfg.GCSBucket); err != nil {
			return nil, err
		}
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// objectName is a random name carrying an extension for the content type.
func objectName(contentType string) string {
	return "products/" + uuid.NewString() + extension(contentType)
}

func extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".bin"
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return exts[0]
	}
	if strings.HasPrefix(mediaType, "image/") {
		return "." + strings.TrimPrefix(mediaType, "image/")
	}
	return ".bin"
}
