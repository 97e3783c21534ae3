// Package docxtest builds small OOXML packages and images for tests.
package docxtest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"

	"supplydesk/internal/docx"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"><w:body>`

const documentTail = `<w:sectPr/></w:body></w:document>`

// Rel is one relationship of word/document.xml.
type Rel struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// Document returns a package whose body is bodyXML. Extra parts are added
// verbatim, which is how tests place media files.
func Document(bodyXML string, rels []Rel, extra map[string][]byte) []byte {
	p := docx.New()
	p.SetPart(docx.ContentTypesPart, []byte(contentTypes))
	p.SetPart("_rels/.rels", []byte(packageRels))
	p.SetPart("word/document.xml", []byte(documentHead+bodyXML+documentTail))

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		b.WriteString(`<Relationship Id="` + r.ID + `" Type="` + r.Type + `" Target="` + r.Target + `"`)
		if r.External {
			b.WriteString(` TargetMode="External"`)
		}
		b.WriteString(`/>`)
	}
	b.WriteString(`</Relationships>`)
	p.SetPart("word/_rels/document.xml.rels", []byte(b.String()))

	for name, blob := range extra {
		p.SetPart(name, blob)
	}
	out, err := p.Bytes()
	if err != nil {
		panic(err)
	}
	return out
}

// Paragraph renders a single-run paragraph.
func Paragraph(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r></w:p>`
}

// Table renders rows of plain text cells.
func Table(rows [][]string) string {
	var b strings.Builder
	b.WriteString(`<w:tbl><w:tblPr/>`)
	for _, row := range rows {
		b.WriteString(`<w:tr>`)
		for _, cell := range row {
			b.WriteString(`<w:tc><w:tcPr/>` + Paragraph(cell) + `</w:tc>`)
		}
		b.WriteString(`</w:tr>`)
	}
	b.WriteString(`</w:tbl>`)
	return b.String()
}

// ImageCell renders a table cell holding a picture that references relID.
func ImageCell(relID string) string {
	return `<w:tc><w:p><w:r><w:drawing><wp:inline><a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><a:graphicData><pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"><pic:blipFill><a:blip r:embed="` + relID + `"/></pic:blipFill></pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p></w:tc>`
}

// OrderTemplate is a minimal order template: header fields, a category
// loop and one table whose second row repeats per line item. The address tag
// is split across runs the way editors often save it.
func OrderTemplate() []byte {
	body := `<w:p><w:r><w:t xml:space="preserve">Delivery address: {addr</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>ess}</w:t></w:r></w:p>` +
		Paragraph("Date: {date}") +
		Paragraph("Contact: {contactName} ({company})") +
		Paragraph("{phoneNumber} {email}") +
		Paragraph("{#categories}") +
		Paragraph("{category}") +
		Table([][]string{
			{"Code", "Description", "Details", "Qty", "Notes", "Image", "Link"},
			{"{#items}{code}", "{description}", "{productDetails}", "{quantity}", "{notes}", "{%image}", "{link}{/items}"},
		}) +
		Paragraph("{/categories}")
	return Document(body, nil, nil)
}

// PNG returns a patterned PNG. The pattern keeps small images from
// compressing down to a handful of bytes.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 37), G: uint8(y * 53), B: uint8((x + y) * 11), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
