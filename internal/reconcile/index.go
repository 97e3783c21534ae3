package reconcile

import (
	"strings"

	"supplydesk/internal"
)

// Index is a catalog snapshot keyed for exact lookups. Positions refer to
// catalog iteration order so ties stay stable.
type Index struct {
	Entries    []internal.CatalogEntry
	Normalized []string
	ByCode     map[string][]int
}

func BuildIndex(entries []internal.CatalogEntry) *Index {
	idx := &Index{
		Entries:    entries,
		Normalized: make([]string, len(entries)),
		ByCode:     map[string][]int{},
	}
	for i, e := range entries {
		norm := NormalizeCode(e.Code)
		idx.Normalized[i] = norm
		if norm == "" {
			continue
		}
		idx.ByCode[norm] = append(idx.ByCode[norm], i)
	}
	return idx
}

// Exact returns the first entry whose code equals the query under
// normalization or plain case-insensitive comparison.
func (idx *Index) Exact(query string) (internal.CatalogEntry, bool) {
	if hits := idx.ByCode[NormalizeCode(query)]; len(hits) > 0 {
		return idx.Entries[hits[0]], true
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return internal.CatalogEntry{}, false
	}
	for _, e := range idx.Entries {
		if strings.EqualFold(strings.TrimSpace(e.Code), q) {
			return e, true
		}
	}
	return internal.CatalogEntry{}, false
}
