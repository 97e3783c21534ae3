package tables

import (
	"strings"

	"supplydesk/internal/docx"
)

type docxMedia struct {
	pkg  *docx.Package
	rels *docx.Relationships
}

func (m docxMedia) Resolve(ref string) ([]byte, bool) {
	if m.rels == nil {
		return nil, false
	}
	part, ok := m.rels.PartFor(ref)
	if !ok {
		return nil, false
	}
	blob, ok := m.pkg.Part(part)
	return blob, ok && len(blob) > 0
}

// FromDOCX reads every table of the primary document part. A package without
// a primary part or without a body is a *docx.StructuralError.
func FromDOCX(content []byte) (*Document, error) {
	pkg, err := docx.Open(content)
	if err != nil {
		return nil, err
	}
	return FromPackage(pkg)
}

func FromPackage(pkg *docx.Package) (*Document, error) {
	name, root, err := pkg.MainDocument()
	if err != nil {
		return nil, err
	}
	rels, err := pkg.Relationships(name)
	if err != nil {
		// Without a relationship table images cannot be resolved, text still can.
		rels = nil
	}

	body := root.Find("w", "body")
	w := &docxWalker{}
	w.walk(body)

	return &Document{
		Source: SourceDOCX,
		Tables: w.tables,
		Text:   strings.Join(w.lines, "\n"),
		media:  docxMedia{pkg: pkg, rels: rels},
	}, nil
}

type docxWalker struct {
	tables []Table
	lines  []string
}

func (w *docxWalker) walk(n *docx.Node) {
	for _, c := range n.Children {
		switch {
		case c.Is("w", "tbl"):
			w.table(c)
		case c.Is("w", "p"):
			w.line(docx.ParagraphText(c))
		case c.Kind == docx.ElementNode:
			w.walk(c)
		}
	}
}

func (w *docxWalker) line(text string) {
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			w.lines = append(w.lines, l)
		}
	}
}

// table appends the table before any table nested in its cells.
func (w *docxWalker) table(tbl *docx.Node) {
	idx := len(w.tables)
	w.tables = append(w.tables, Table{})
	var rows []Row
	for _, tr := range tbl.Children {
		if !tr.Is("w", "tr") {
			continue
		}
		row := Row{}
		for _, tc := range tr.Children {
			if !tc.Is("w", "tc") {
				continue
			}
			row.Cells = append(row.Cells, w.cell(tc))
		}
		rows = append(rows, row)
	}
	w.tables[idx].Rows = rows
}

func (w *docxWalker) cell(tc *docx.Node) Cell {
	var paragraphs []string
	var refs []string
	for _, c := range tc.Children {
		switch {
		case c.Is("w", "p"):
			text := docx.ParagraphText(c)
			w.line(text)
			if strings.TrimSpace(text) != "" {
				paragraphs = append(paragraphs, text)
			}
			refs = append(refs, docx.EmbeddedImageRefs(c)...)
		case c.Is("w", "tbl"):
			w.table(c)
		case c.Kind == docx.ElementNode:
			if text := docx.ParagraphText(c); strings.TrimSpace(text) != "" {
				paragraphs = append(paragraphs, text)
			}
			refs = append(refs, docx.EmbeddedImageRefs(c)...)
		}
	}
	return Cell{Text: strings.Join(paragraphs, "\n"), MediaRefs: refs}
}
