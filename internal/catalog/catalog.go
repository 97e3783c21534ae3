// Package catalog holds the catalog read interface used by the reconciler,
// the remote catalog sync client and the bulk importer that commits
// approved records.
package catalog

import (
	"context"

	"supplydesk/internal"
)

type Reader interface {
	FindByCode(ctx context.Context, code string) (*internal.CatalogEntry, error)
	ListAll(ctx context.Context, limit int) ([]internal.CatalogEntry, error)
	Search(ctx context.Context, query string, limit int) ([]internal.CatalogEntry, error)
}

type Writer interface {
	CreateProduct(ctx context.Context, entry internal.CatalogEntry) (internal.CatalogEntry, error)
}

type Store interface {
	Reader
	Writer
	UpsertProducts(products []internal.CatalogEntry) error
	SetMetadata(key, value string) error
	GetMetadata(key string) (*string, error)
}
