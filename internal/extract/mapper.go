package extract

import (
	"strings"

	"supplydesk/internal"
	"supplydesk/internal/tables"
	"supplydesk/internal/util"
)

const codePrefixSeparators = " \t-_:/."

// Mapper turns table rows into records using a profile's column mappings.
type Mapper struct {
	profile SupplierProfile
	skip    *SkipFilter
}

func NewMapper(profile SupplierProfile) *Mapper {
	return &Mapper{profile: profile, skip: NewSkipFilter(profile.Rules.SkipWords)}
}

// Map walks every table, skipping rows before StartRow in each one. Rows that
// yield no valid record are counted in missed; fully blank rows are ignored.
func (m *Mapper) Map(doc *tables.Document) (records []internal.ExtractedRecord, missed int) {
	for _, table := range doc.Tables {
		for i, row := range table.Rows {
			if i+1 < m.profile.StartRow || blankRow(row) {
				continue
			}
			rec, ok := m.mapRow(doc, row)
			if !ok {
				missed++
				continue
			}
			records = append(records, rec)
		}
	}
	return records, missed
}

func (m *Mapper) mapRow(doc *tables.Document, row tables.Row) (internal.ExtractedRecord, bool) {
	var rec internal.ExtractedRecord
	for _, mapping := range m.profile.Mappings {
		cell, ok := row.Cell(mapping.Column)
		if !ok {
			continue
		}
		switch mapping.Field {
		case internal.FieldCode:
			rec.Code = StripPrefix(util.NormalizeSpaces(cell.Text), m.profile.Rules.Prefixes)
		case internal.FieldDescription:
			rec.Description = util.NormalizeSpaces(cell.Text)
		case internal.FieldImage:
			rec.ImageBytes = doc.Image(cell)
		case internal.FieldPrice:
			rec.Price = util.OptionalString(util.CleanPrice(cell.Text))
		case internal.FieldProductDetails:
			rec.ProductDetails = util.OptionalString(strings.TrimSpace(cell.Text))
		case internal.FieldBrand:
			rec.Brand = util.OptionalString(util.NormalizeSpaces(cell.Text))
		case internal.FieldKeywords:
			rec.Keywords = util.OptionalString(util.NormalizeSpaces(cell.Text))
		case internal.FieldLink:
			rec.Link = util.OptionalString(strings.TrimSpace(cell.Text))
		case internal.FieldArea:
			rec.Area = util.OptionalString(util.NormalizeSpaces(cell.Text))
		}
	}
	if rec.Code == "" || rec.Description == "" {
		return rec, false
	}
	if m.skip.Skippable(rec.Code) || m.skip.Skippable(rec.Description) {
		return rec, false
	}
	return rec, true
}

// StripPrefix removes the first matching supplier prefix (case-insensitive)
// plus any separators after it. A code made only of the prefix is kept as is.
func StripPrefix(code string, prefixes []string) string {
	for _, prefix := range prefixes {
		if prefix == "" || len(code) <= len(prefix) {
			continue
		}
		if !strings.EqualFold(code[:len(prefix)], prefix) {
			continue
		}
		if rest := strings.TrimLeft(code[len(prefix):], codePrefixSeparators); rest != "" {
			return rest
		}
	}
	return code
}

func blankRow(row tables.Row) bool {
	for _, c := range row.Cells {
		if strings.TrimSpace(c.Text) != "" || len(c.MediaRefs) > 0 {
			return false
		}
	}
	return true
}
