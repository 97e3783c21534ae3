package tables_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"supplydesk/internal/docx"
	"supplydesk/internal/docx/docxtest"
	"supplydesk/internal/tables"
)

func TestFromDOCXWalksTablesRowsCellsAndMedia(t *testing.T) {
	png := docxtest.PNG(3, 3)
	body := docxtest.Paragraph("Quote 1234") +
		`<w:tbl><w:tr><w:tc>` + docxtest.Paragraph("BWA-K100") + `</w:tc><w:tc>` + docxtest.Paragraph("Single Bowl Sink") + `</w:tc>` +
		docxtest.ImageCell("rId7") + docxtest.ImageCell("rId99") + `</w:tr></w:tbl>`
	blob := docxtest.Document(body, []docxtest.Rel{
		{ID: "rId7", Type: docx.RelTypeImage, Target: "media/image1.png"},
	}, map[string][]byte{"word/media/image1.png": png})

	doc, err := tables.FromDOCX(blob)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	require.Len(t, doc.Tables[0].Rows, 1)

	row := doc.Tables[0].Rows[0]
	require.Len(t, row.Cells, 4)
	assert.Equal(t, []string{"BWA-K100", "Single Bowl Sink", "", ""}, row.Texts())

	img, ok := row.Cell(3)
	require.True(t, ok)
	assert.Equal(t, png, doc.Image(img))

	missing, ok := row.Cell(4)
	require.True(t, ok)
	assert.Nil(t, doc.Image(missing))

	_, ok = row.Cell(5)
	assert.False(t, ok)

	assert.Contains(t, doc.Text, "Quote 1234")
	assert.Contains(t, doc.Text, "Single Bowl Sink")
}

func TestFromDOCXNestedTablesAreSeparate(t *testing.T) {
	inner := docxtest.Table([][]string{{"inner"}})
	body := `<w:tbl><w:tr><w:tc>` + docxtest.Paragraph("outer") + inner + `</w:tc></w:tr></w:tbl>`
	doc, err := tables.FromDOCX(docxtest.Document(body, nil, nil))
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "outer", doc.Tables[0].Rows[0].Cells[0].Text)
	assert.Equal(t, "inner", doc.Tables[1].Rows[0].Cells[0].Text)
}

func TestFromDOCXMissingBodyIsStructural(t *testing.T) {
	p := docx.New()
	p.SetPart("word/document.xml", []byte(`<w:document xmlns:w="urn:w"/>`))
	blob, err := p.Bytes()
	require.NoError(t, err)

	_, err = tables.FromDOCX(blob)
	var se *docx.StructuralError
	require.True(t, errors.As(err, &se))
}

func TestFromXLSXWithPicture(t *testing.T) {
	png := docxtest.PNG(2, 2)
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]any{"Code", "Description", "Image"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"K100", "Single Bowl Sink"})
	require.NoError(t, f.AddPictureFromBytes(sheet, "C2", &excelize.Picture{Extension: ".png", File: png, Format: &excelize.GraphicOptions{}}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	doc, err := tables.FromXLSX(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	require.Len(t, doc.Tables[0].Rows, 2)

	row := doc.Tables[0].Rows[1]
	assert.Equal(t, "K100", row.Cells[0].Text)
	cell, ok := row.Cell(3)
	require.True(t, ok)
	assert.Equal(t, png, doc.Image(cell))
}

func TestFromHTMLDataURIImages(t *testing.T) {
	png := docxtest.PNG(2, 2)
	html := `<html><body><p>Order</p><table>
<tr><th>Code</th><th>Description</th><th>Image</th></tr>
<tr><td> K100 </td><td>Single   Bowl Sink</td><td><img src="data:image/png;base64,` + base64.StdEncoding.EncodeToString(png) + `"></td></tr>
<tr><td>K200</td><td>Double Bowl Sink</td><td><img src="https://cdn.example.com/k200.png"></td></tr>
</table></body></html>`

	doc, err := tables.FromHTML(html)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	rows := doc.Tables[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"K100", "Single Bowl Sink", ""}, rows[1].Texts())
	assert.Equal(t, png, doc.Image(rows[1].Cells[2]))
	assert.Nil(t, doc.Image(rows[2].Cells[2]))
	assert.Contains(t, doc.Text, "Order")
}

func TestReadDispatchesByExtension(t *testing.T) {
	_, err := tables.Read("quote.pdf", []byte("%PDF"))
	require.Error(t, err)

	doc, err := tables.Read("Quote.DOCX", docxtest.Document(docxtest.Table([][]string{{"a", "b"}}), nil, nil))
	require.NoError(t, err)
	assert.Equal(t, tables.SourceDOCX, doc.Source)
}
