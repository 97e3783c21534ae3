package reconcile

import (
	"sort"

	"supplydesk/internal"
)

const (
	DefaultSuggestionCap     = 5
	DefaultFuzzyMaxUnmatched = 20
)

// Report is the outcome of reconciling one batch of query codes.
type Report struct {
	Results            []internal.MatchResult `json:"results"`
	Matched            int                    `json:"matched"`
	Unmatched          int                    `json:"unmatched"`
	FuzzySkipped       bool                   `json:"fuzzySkipped"`
	CatalogUnavailable bool                   `json:"catalogUnavailable"`
}

type Engine struct {
	SuggestionCap     int
	FuzzyMaxUnmatched int
}

func NewEngine(suggestionCap, fuzzyMaxUnmatched int) *Engine {
	if suggestionCap <= 0 {
		suggestionCap = DefaultSuggestionCap
	}
	if fuzzyMaxUnmatched <= 0 {
		fuzzyMaxUnmatched = DefaultFuzzyMaxUnmatched
	}
	return &Engine{SuggestionCap: suggestionCap, FuzzyMaxUnmatched: fuzzyMaxUnmatched}
}

// Reconcile resolves every code against the snapshot. Results keep the order
// of codes. Fuzzy scoring only runs when at most FuzzyMaxUnmatched codes
// missed; otherwise misses come back with empty suggestions.
func (e *Engine) Reconcile(codes []string, catalog []internal.CatalogEntry) Report {
	idx := BuildIndex(catalog)
	report := Report{Results: make([]internal.MatchResult, 0, len(codes))}
	var misses []int
	for _, code := range codes {
		res := internal.MatchResult{QueryCode: code, Suggestions: []internal.Suggestion{}}
		if entry, ok := idx.Exact(code); ok {
			res.ExactMatch = &entry
			report.Matched++
		} else {
			misses = append(misses, len(report.Results))
			report.Unmatched++
		}
		report.Results = append(report.Results, res)
	}
	if len(misses) > e.FuzzyMaxUnmatched {
		report.FuzzySkipped = true
		return report
	}
	for _, i := range misses {
		report.Results[i].Suggestions = e.Suggest(idx, report.Results[i].QueryCode)
	}
	return report
}

// Suggest ranks catalog entries for a code with no exact match.
func (e *Engine) Suggest(idx *Index, code string) []internal.Suggestion {
	q := NormalizeCode(code)
	qTokens := Tokenize(code)
	out := []internal.Suggestion{}
	for i, entry := range idx.Entries {
		score, kind := scoreNormalized(q, idx.Normalized[i], qTokens, Tokenize(entry.Code))
		if score <= 0 {
			continue
		}
		out = append(out, internal.Suggestion{Entry: entry, Score: score, MatchType: kind})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > e.SuggestionCap {
		out = out[:e.SuggestionCap]
	}
	return out
}
