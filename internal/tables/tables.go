// Package tables walks table-bearing documents (tables, rows, cells and the
// media embedded in cells) without attaching any field meaning to them.
package tables

import (
	"fmt"
	"strings"
)

type Source string

const (
	SourceDOCX Source = "docx"
	SourceXLSX Source = "xlsx"
	SourceHTML Source = "html"
	// SourcePDF marks text flattened from a PDF; it never carries tables.
	SourcePDF Source = "pdf"
	SourceText Source = "text"
)

type Cell struct {
	Text      string
	MediaRefs []string
}

type Row struct {
	Cells []Cell
}

type Table struct {
	Name string
	Rows []Row
}

// MediaResolver turns a media reference found in a cell into raw bytes.
type MediaResolver interface {
	Resolve(ref string) ([]byte, bool)
}

type mediaMap map[string][]byte

func (m mediaMap) Resolve(ref string) ([]byte, bool) {
	blob, ok := m[ref]
	return blob, ok && len(blob) > 0
}

type Document struct {
	Source Source
	Tables []Table
	// Text is the document flattened to lines, used by text-only parsers.
	Text  string
	media MediaResolver
}

// Image returns the first resolvable media reference of a cell. Unresolvable
// references are not an error, the cell simply has no image.
func (d *Document) Image(c Cell) []byte {
	if d.media == nil {
		return nil
	}
	for _, ref := range c.MediaRefs {
		if blob, ok := d.media.Resolve(ref); ok {
			return blob
		}
	}
	return nil
}

// Cell returns the cell at a 1-based column position.
func (r Row) Cell(column int) (Cell, bool) {
	if column < 1 || column > len(r.Cells) {
		return Cell{}, false
	}
	return r.Cells[column-1], true
}

func (r Row) Texts() []string {
	out := make([]string, 0, len(r.Cells))
	for _, c := range r.Cells {
		out = append(out, c.Text)
	}
	return out
}

// RowCount counts rows across all tables.
func (d *Document) RowCount() int {
	n := 0
	for _, t := range d.Tables {
		n += len(t.Rows)
	}
	return n
}

func flattenRows(tables []Table) string {
	var b strings.Builder
	for _, t := range tables {
		for _, r := range t.Rows {
			for _, c := range r.Cells {
				if strings.TrimSpace(c.Text) == "" {
					continue
				}
				b.WriteString(c.Text)
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// Read picks a reader by file extension.
func Read(filename string, content []byte) (*Document, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".docx"):
		return FromDOCX(content)
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xlsm"):
		return FromXLSX(content)
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return FromHTML(string(content))
	default:
		return nil, fmt.Errorf("unsupported table document: %s", filename)
	}
}
