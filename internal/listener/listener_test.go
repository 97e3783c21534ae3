package listener

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal"
	"supplydesk/internal/connectors"
	"supplydesk/internal/pipeline"
	"supplydesk/internal/storage"
)

type fakeFetcher struct {
	result connectors.FetchResult
	err    error
	calls  int
}

func (f *fakeFetcher) FetchAndStore(context.Context, string, int) (connectors.FetchResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeProcessor struct {
	results []pipeline.ProcessResult
}

func (f *fakeProcessor) ProcessPending(context.Context, int, string) ([]pipeline.ProcessResult, error) {
	return f.results, nil
}

func TestRunCycleExportsProcessedDocuments(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	doc, err := db.UpsertInboundDocument("imap", "<q-1@acme.test>", "Quote", "sales@acme.test", "2026-10-19T08:00:00Z", "h", "raw.eml", "processed")
	require.NoError(t, err)
	extractionID, err := db.InsertExtraction(doc.ID, "quote.docx", "Acme Tiles", 1, internal.ExtractedRecord{Code: "K100"})
	require.NoError(t, err)
	require.NoError(t, db.InsertMatch(extractionID, internal.MatchResult{QueryCode: "K100"}))

	out := t.TempDir()
	svc := NewService(db,
		&fakeFetcher{result: connectors.FetchResult{Fetched: 2, Stored: 1}},
		&fakeProcessor{results: []pipeline.ProcessResult{
			{DocumentID: doc.ID, Status: pipeline.StatusProcessed},
			{DocumentID: 999, Status: pipeline.StatusEmpty},
		}},
		Options{Provider: " IMAP ", AutoExport: true, OutputDir: out},
		nil,
	)

	res, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Fetched: 2, Stored: 1, Processed: 2, Exported: 1}, res)

	_, err = os.Stat(filepath.Join(out, "listener", "1_q-1_acme.test.xlsx"))
	require.NoError(t, err)

	stored, err := db.GetInboundDocumentByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExported, stored.Status)
}

func TestRunStopsOnCancelAndSurvivesCycleErrors(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("imap down")}
	svc := NewService(nil, fetcher, &fakeProcessor{}, Options{Interval: 5 * time.Millisecond}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.NoError(t, svc.Run(ctx))
	assert.GreaterOrEqual(t, fetcher.calls, 2)
}

func TestSanitizeMessageID(t *testing.T) {
	assert.Equal(t, "abc_def_x.test", sanitizeMessageID("<abc/def@x.test>"))
}
