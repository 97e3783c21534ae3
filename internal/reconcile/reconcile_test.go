package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal"
	"supplydesk/internal/reconcile"
)

func entries(codes ...string) []internal.CatalogEntry {
	out := make([]internal.CatalogEntry, 0, len(codes))
	for i, c := range codes {
		out = append(out, internal.CatalogEntry{ID: i + 1, Code: c, Description: "item " + c})
	}
	return out
}

func TestNormalizeCodeIsIdempotent(t *testing.T) {
	for _, s := range []string{"A8 CWH66-1500DWM", " bwa_k.100 ", "SB-450\tWHITE", "", "ÄB-12"} {
		once := reconcile.NormalizeCode(s)
		assert.Equal(t, once, reconcile.NormalizeCode(once), s)
	}
	assert.Equal(t, "a8cwh661500dwm", reconcile.NormalizeCode("A8 CWH66-1500DWM"))
}

func TestNormalizeCodeStripsEveryKindOfSpace(t *testing.T) {
	for _, s := range []string{"CWH66\r1500", "CWH66\f1500", "CWH66\v1500", "CWH66\u00a01500", " CWH66 \r\n1500 "} {
		assert.Equal(t, "cwh661500", reconcile.NormalizeCode(s), "%q", s)
	}

	report := reconcile.NewEngine(0, 0).Reconcile([]string{"CWH66\r1500"}, entries("CWH66-1500"))
	require.Len(t, report.Results, 1)
	require.NotNil(t, report.Results[0].ExactMatch)
	assert.Equal(t, "CWH66-1500", report.Results[0].ExactMatch.Code)
}

func TestLossySourceCodeGetsContainsSuggestion(t *testing.T) {
	engine := reconcile.NewEngine(0, 0)
	report := engine.Reconcile([]string{"CWH661500DWM"}, entries("K100", "A8 CWH66-1500DWM"))

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.False(t, res.Matched())
	require.NotEmpty(t, res.Suggestions)
	top := res.Suggestions[0]
	assert.Equal(t, 2, top.Entry.ID)
	assert.Contains(t, []internal.MatchType{internal.MatchContains, internal.MatchPartial}, top.MatchType)
	assert.GreaterOrEqual(t, top.Score, 70.0)
	assert.Equal(t, 0, report.Matched)
	assert.Equal(t, 1, report.Unmatched)
}

func TestExactMatchUnderNormalization(t *testing.T) {
	catalog := entries("A8 CWH66-1500DWM", "a8cwh661500dwm")
	report := reconcile.NewEngine(0, 0).Reconcile([]string{"a8 cwh66 1500dwm"}, catalog)

	res := report.Results[0]
	require.NotNil(t, res.ExactMatch)
	assert.Equal(t, 1, res.ExactMatch.ID, "first entry in catalog order wins")
	assert.Empty(t, res.Suggestions)
}

func TestExactAndSuggestionsAreExclusive(t *testing.T) {
	catalog := entries("K100", "K1000", "SB-450", "TAP-778", "A8 CWH66-1500DWM")
	report := reconcile.NewEngine(0, 0).Reconcile([]string{"K100", "k-100", "K10", "SB450W", "TAP", "CWH66"}, catalog)
	for _, res := range report.Results {
		if res.ExactMatch != nil {
			assert.Empty(t, res.Suggestions, res.QueryCode)
			continue
		}
		for _, s := range res.Suggestions {
			assert.NotEqual(t, reconcile.NormalizeCode(res.QueryCode), reconcile.NormalizeCode(s.Entry.Code))
		}
	}
	assert.Equal(t, 2, report.Matched)
}

func TestSuggestionsSortedStableAndCapped(t *testing.T) {
	codes := []string{"XX-1", "K100-A", "K1001", "ZZ", "K1002", "K1003", "K1004", "K1005", "K1006"}
	report := reconcile.NewEngine(5, 20).Reconcile([]string{"K100"}, entries(codes...))

	got := report.Results[0].Suggestions
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	ids := []int{}
	for _, s := range got {
		ids = append(ids, s.Entry.ID)
	}
	assert.Equal(t, []int{2, 3, 5, 6, 7}, ids)
}

func TestScoreOrdering(t *testing.T) {
	contains, kind := reconcile.Score("CWH66", "A8 CWH66-1500")
	assert.Equal(t, internal.MatchContains, kind)

	partial, kind := reconcile.Score("A8 CWH66-1500DWM-X", "CWH66-1500DWM")
	assert.Equal(t, internal.MatchPartial, kind)

	parts, kind := reconcile.Score("SB 450 WHITE", "SB-450-BLK")
	assert.Equal(t, internal.MatchParts, kind)

	substring, kind := reconcile.Score("XYZ-9981", "ABC9981Q")
	assert.Equal(t, internal.MatchSubstring, kind)

	none, _ := reconcile.Score("K100", "ZZ99")

	assert.Greater(t, contains, partial)
	assert.Greater(t, partial, parts)
	assert.Greater(t, parts, substring)
	assert.Greater(t, substring, none)
	assert.Zero(t, none)
}

func TestFuzzySkippedAboveThreshold(t *testing.T) {
	codes := make([]string, 0, 21)
	for i := 0; i < 21; i++ {
		codes = append(codes, fmt.Sprintf("MISS%03d", i))
	}
	report := reconcile.NewEngine(5, 20).Reconcile(codes, entries("MISS000X", "K100"))
	assert.True(t, report.FuzzySkipped)
	assert.Equal(t, 21, report.Unmatched)
	for _, res := range report.Results {
		assert.NotNil(t, res.Suggestions)
		assert.Empty(t, res.Suggestions)
	}

	report = reconcile.NewEngine(5, 20).Reconcile(codes[:20], entries("MISS000X", "K100"))
	assert.False(t, report.FuzzySkipped)
	assert.NotEmpty(t, report.Results[0].Suggestions)
}

type fakeCatalog struct {
	entries []internal.CatalogEntry
	err     error
	limit   int
}

func (f *fakeCatalog) ListAll(ctx context.Context, limit int) ([]internal.CatalogEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

func TestServiceUsesFreshSnapshot(t *testing.T) {
	cat := &fakeCatalog{entries: entries("K100")}
	svc := reconcile.NewService(cat, nil, 500, 0, nil)

	report := svc.Reconcile(context.Background(), []string{"k100"})
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 500, cat.limit)

	cat.entries = entries("K200")
	report = svc.Reconcile(context.Background(), []string{"k100"})
	assert.Equal(t, 0, report.Matched)
}

func TestServiceDegradesWhenCatalogFails(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("connection refused")}
	report := reconcile.NewService(cat, nil, 0, 0, nil).Reconcile(context.Background(), []string{"K100", "K200"})

	assert.True(t, report.CatalogUnavailable)
	assert.Equal(t, 2, report.Unmatched)
	for _, res := range report.Results {
		assert.Nil(t, res.ExactMatch)
		assert.Empty(t, res.Suggestions)
	}
}
