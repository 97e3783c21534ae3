package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal"
	"supplydesk/internal/util"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "supplydesk.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestProductsUpsertListFind(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertProducts([]internal.CatalogEntry{
		{Code: "K100", Description: "Kitchen mixer", Keywords: util.StringPtr("tap chrome")},
		{Code: "TAP-778", Description: "Basin tap"},
	}))
	require.NoError(t, db.UpsertProducts([]internal.CatalogEntry{
		{Code: "K100", Description: "Kitchen mixer v2"},
	}))

	all, err := db.ListAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "K100", all[0].Code)
	assert.Equal(t, "Kitchen mixer v2", all[0].Description)

	limited, err := db.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	found, err := db.FindByCode(ctx, "k100")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "K100", found.Code)

	missing, err := db.FindByCode(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)

	hits, err := db.Search(ctx, "tap", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "TAP-778", hits[0].Code)
}

func TestCreateProductRejectsDuplicateCode(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.CreateProduct(ctx, internal.CatalogEntry{Code: "RX200", Description: "Rail"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = db.CreateProduct(ctx, internal.CatalogEntry{Code: "rx200", Description: "Rail again"})
	assert.True(t, errors.Is(err, ErrDuplicateCode), "got %v", err)
}

func TestReviewRowsOrderMatchedFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	product, err := db.CreateProduct(ctx, internal.CatalogEntry{Code: "K100", Description: "Kitchen mixer"})
	require.NoError(t, err)

	doc, err := db.UpsertInboundDocument("imap", "m-1", "Quote", "sales@acme.test", "2026-10-19T08:00:00Z", "abc", "data/raw/m-1.eml", "fetched")
	require.NoError(t, err)

	missID, err := db.InsertExtraction(doc.ID, "quote.pdf", "generic", 1, internal.ExtractedRecord{Code: "ZZ-9"})
	require.NoError(t, err)
	require.NoError(t, db.InsertMatch(missID, internal.MatchResult{
		QueryCode: "ZZ-9",
		Suggestions: []internal.Suggestion{
			{Entry: product, Score: 40, MatchType: internal.MatchSubstring},
		},
	}))

	hitID, err := db.InsertExtraction(doc.ID, "quote.pdf", "generic", 2, internal.ExtractedRecord{Code: "K100", Price: util.StringPtr("249.00")})
	require.NoError(t, err)
	require.NoError(t, db.InsertMatch(hitID, internal.MatchResult{QueryCode: "K100", ExactMatch: &product}))

	rows, err := db.GetReviewRows(doc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "matched", rows[0].Status)
	assert.Equal(t, "249.00", rows[0].Price)
	require.NotNil(t, rows[0].MatchedCode)
	assert.Equal(t, "K100", *rows[0].MatchedCode)

	assert.Equal(t, "unmatched", rows[1].Status)
	assert.Nil(t, rows[1].MatchedID)
	require.NotNil(t, rows[1].Suggestion1)
	assert.Equal(t, "K100", *rows[1].Suggestion1)
	assert.Equal(t, 40.0, *rows[1].Suggestion1Pts)
	assert.Nil(t, rows[1].Suggestion2)

	require.NoError(t, db.ClearDocumentProcessing(doc.ID))
	rows, err = db.GetReviewRows(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInboundDocumentsAndMetadata(t *testing.T) {
	db := openTestDB(t)

	first, err := db.UpsertInboundDocument("gmail", "g-1", "Quote", "a@b.test", "2026-10-18T08:00:00Z", "h1", "raw/g-1.eml", "fetched")
	require.NoError(t, err)
	again, err := db.UpsertInboundDocument("gmail", "g-1", "Quote v2", "a@b.test", "2026-10-18T08:00:00Z", "h2", "raw/g-1.eml", "fetched")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Quote v2", again.Subject)

	require.NoError(t, db.UpdateInboundDocumentStatus(first.ID, "processed"))
	fetched, err := db.ListInboundDocumentsByStatus("fetched", 10)
	require.NoError(t, err)
	assert.Empty(t, fetched)

	byID, err := db.GetInboundDocumentByID(first.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "processed", byID.Status)

	value, err := db.GetMetadata("catalog.lastSyncAt")
	require.NoError(t, err)
	assert.Nil(t, value)
	require.NoError(t, db.SetMetadata("catalog.lastSyncAt", "2026-10-19T00:00:00Z"))
	value, err = db.GetMetadata("catalog.lastSyncAt")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "2026-10-19T00:00:00Z", *value)

	require.NoError(t, db.InsertRun("trace-1", first.ID, map[string]float64{"extract": 1.5}, map[string]int{"records": 3}))
}
