package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal"
	"supplydesk/internal/docx"
	"supplydesk/internal/docx/docxtest"
	"supplydesk/internal/extract"
	"supplydesk/internal/tables"
)

func bwaColumns() extract.SupplierProfile {
	return extract.SupplierProfile{
		Name: "bwa-columns",
		Kind: extract.KindColumnMapped,
		Mappings: []internal.ColumnMapping{
			{Column: 1, Field: internal.FieldCode},
			{Column: 2, Field: internal.FieldDescription},
			{Column: 3, Field: internal.FieldPrice},
			{Column: 4, Field: internal.FieldImage},
		},
		Rules: extract.Rules{Prefixes: []string{"BWA"}},
	}
}

func TestColumnMappedExtractionFiltersLetterheadRows(t *testing.T) {
	png := docxtest.PNG(2, 2)
	body := `<w:tbl>` +
		`<w:tr><w:tc>` + docxtest.Paragraph("Code") + `</w:tc><w:tc>` + docxtest.Paragraph("Description") + `</w:tc>` +
		`<w:tc>` + docxtest.Paragraph("Price") + `</w:tc></w:tr>` +
		`<w:tr>` +
		`<w:tc>` + docxtest.Paragraph("BWA-K100") + `</w:tc>` +
		`<w:tc>` + docxtest.Paragraph("Single  Bowl Sink") + `</w:tc>` +
		`<w:tc>` + docxtest.Paragraph("$249.00") + `</w:tc>` +
		docxtest.ImageCell("rId9") +
		`</w:tr><w:tr>` +
		`<w:tc>` + docxtest.Paragraph("PHONE") + `</w:tc>` +
		`<w:tc>` + docxtest.Paragraph("1300 555 000") + `</w:tc>` +
		`<w:tc>` + docxtest.Paragraph("") + `</w:tc>` +
		`</w:tr></w:tbl>`
	blob := docxtest.Document(body, []docxtest.Rel{{ID: "rId9", Type: docx.RelTypeImage, Target: "media/k100.png"}},
		map[string][]byte{"word/media/k100.png": png})
	doc, err := tables.FromDOCX(blob)
	require.NoError(t, err)

	profile := bwaColumns()
	profile.StartRow = 2
	profile.HasHeaderRow = true
	res, err := extract.NewExtractor(nil).Extract(doc, profile)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "K100", rec.Code)
	assert.Equal(t, "Single Bowl Sink", rec.Description)
	require.NotNil(t, rec.Price)
	assert.Equal(t, "249.00", *rec.Price)
	assert.Equal(t, png, rec.ImageBytes)
	assert.Equal(t, 1, res.Missed)
	assert.Equal(t, []string{"K100"}, res.Codes)
}

func TestColumnMappedStartRowAppliesPerTable(t *testing.T) {
	doc := &tables.Document{Source: tables.SourceHTML, Tables: []tables.Table{
		{Rows: []tables.Row{row("Code", "Description"), row("A1", "Alpha")}},
		{Rows: []tables.Row{row("Code", "Description"), row("B2", "Beta"), row("", "")}},
	}}
	profile := bwaColumns()
	profile.HasHeaderRow = true

	res, err := extract.NewExtractor(nil).Extract(doc, profile)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, res.Codes)
	assert.Zero(t, res.Missed)
}

func TestColumnMappedMissingCellsAreMisses(t *testing.T) {
	doc := &tables.Document{Tables: []tables.Table{{Rows: []tables.Row{row("K1"), row("K2", "Two")}}}}
	res, err := extract.NewExtractor(nil).Extract(doc, bwaColumns())
	require.NoError(t, err)
	assert.Equal(t, []string{"K2"}, res.Codes)
	assert.Equal(t, 1, res.Missed)
}

func TestStripPrefix(t *testing.T) {
	prefixes := []string{"BWA"}
	cases := map[string]string{
		"BWA-K100": "K100",
		"bwa k100": "k100",
		"BWA: /K1": "K1",
		"BWA":      "BWA",
		"BWA--":    "BWA--",
		"K100":     "K100",
	}
	for in, want := range cases {
		assert.Equal(t, want, extract.StripPrefix(in, prefixes), in)
	}
}

func TestSkipFilter(t *testing.T) {
	f := extract.NewSkipFilter(extract.DefaultSkipWords)
	for _, s := range []string{"PHONE", "abn", "Pty Ltd", "+61 2 9999 0000", "(02) 9555-1234", "sales@bwa.com.au", "www.bwa.com.au", "https://supplier.com/x", " "} {
		assert.True(t, f.Skippable(s), s)
	}
	for _, s := range []string{"K100", "Single Bowl Sink", "CWH66-1500DWM", "1500"} {
		assert.False(t, f.Skippable(s), s)
	}
}

func TestHeuristicBWAStrategies(t *testing.T) {
	text := "BWA QUOTE 2024\n" +
		"BWA A8 CWH66-1500DWM VANITY WHITE 1500\n" +
		"BWA K2 SB-450 SINK\n" +
		"BWA A8 CWH661500DWM VANITY\n" +
		"Subtotal 1,200.00 incl GST\n" +
		"Code: TAP-778\n" +
		"Model # RX200\n" +
		"Some intro text\n"

	res, err := extract.NewExtractor(nil).ExtractText(text, extract.SupplierProfile{Name: "bwa", Kind: extract.KindHeuristicBWA})
	require.NoError(t, err)
	assert.Equal(t, []string{"A8 CWH66-1500DWM", "K2 SB-450", "TAP-778", "RX200"}, res.Codes)
	assert.Equal(t, 2, res.Missed)
	require.Len(t, res.Records, 4)
	assert.Equal(t, "TAP-778", res.Records[2].Code)
	assert.Empty(t, res.Records[2].Description)
}

func TestHeuristicJoinsContinuationLines(t *testing.T) {
	p := extract.NewTextParser(extract.Rules{Labels: extract.DefaultLabels})
	codes, missed := p.Parse("Code: ABC-\n123\nItem Code: Q.\n77\n")
	assert.Equal(t, []string{"ABC-123", "Q.77"}, codes)
	assert.Zero(t, missed)
}

func TestHeuristicGenericRunsAlongsideOtherStrategies(t *testing.T) {
	p := extract.NewTextParser(extract.Rules{Labels: extract.DefaultLabels})
	codes, _ := p.Parse("Please supply XY-1234 and ZZ99 today\nSKU: AB12 replaces CD34\nxy1234 again")
	assert.Equal(t, []string{"XY-1234", "ZZ99", "AB12", "CD34"}, codes)
}

func TestHeuristicGenericSkipsFragmentsOfCodesOnTheSameLine(t *testing.T) {
	p := extract.NewTextParser(extract.Rules{Prefixes: []string{"BWA"}, StopWords: []string{"vanity"}})
	codes, missed := p.Parse("BWA A8 CWH66-1500DWM vanity\nAlso need TR-200")
	assert.Equal(t, []string{"A8 CWH66-1500DWM", "TR-200"}, codes)
	assert.Zero(t, missed)
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, extract.DedupKey("A8 CWH66-1500DWM"), extract.DedupKey("a8_cwh66.1500/dwm"))
	assert.NotEqual(t, extract.DedupKey("K100"), extract.DedupKey("K1000"))
}

func TestExtractTextRejectsColumnProfiles(t *testing.T) {
	_, err := extract.NewExtractor(nil).ExtractText("K100", bwaColumns())
	assert.Error(t, err)
}

func row(texts ...string) tables.Row {
	r := tables.Row{}
	for _, s := range texts {
		r.Cells = append(r.Cells, tables.Cell{Text: s})
	}
	return r
}
