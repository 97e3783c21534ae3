package docx

import "strings"

// ParagraphText returns the visible text below n. Property subtrees are
// skipped so tab stop definitions do not leak into the text.
func ParagraphText(n *Node) string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		switch {
		case c.Is("w", "pPr"), c.Is("w", "rPr"), c.Is("w", "instrText"), c.Is("w", "delText"):
			return false
		case c.Is("w", "t"):
			b.WriteString(textOf(c))
			return false
		case c.Is("w", "tab"):
			b.WriteByte('\t')
		case c.Is("w", "br"), c.Is("w", "cr"):
			b.WriteByte('\n')
		}
		return true
	})
	return b.String()
}

func textOf(n *Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		if c.Kind == TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// NewTextRun builds a w:r carrying text, with line breaks as w:br.
func NewTextRun(rPr *Node, text string) *Node {
	run := NewElement("w", "r")
	if rPr != nil {
		run.Append(rPr.Clone())
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			run.Append(NewElement("w", "br"))
		}
		t := NewElement("w", "t", NewAttr("xml", "space", "preserve"))
		if line != "" {
			t.Append(NewText(line))
		}
		run.Append(t)
	}
	return run
}

// CollapseRuns merges every text run of a paragraph into its first run so
// that text split by the editor across runs can be matched as one string.
// Paragraphs without a '{' hold no tags and keep their runs.
func CollapseRuns(p *Node) {
	runs := 0
	for _, c := range p.Children {
		if c.Is("w", "r") && c.Child("w", "t") != nil {
			runs++
		}
	}
	if runs <= 1 {
		return
	}
	var b strings.Builder
	for _, c := range p.Children {
		if c.Is("w", "r") && c.Child("w", "drawing") == nil {
			b.WriteString(ParagraphText(c))
		}
	}
	text := b.String()
	if !strings.Contains(text, "{") {
		return
	}
	var rPr *Node
	replaced := false
	out := p.Children[:0]
	for _, c := range p.Children {
		switch {
		case c.Is("w", "proofErr"):
			continue
		case c.Is("w", "r") && c.Child("w", "drawing") == nil:
			if replaced {
				continue
			}
			rPr = c.Child("w", "rPr")
			out = append(out, NewTextRun(rPr, text))
			replaced = true
		default:
			out = append(out, c)
		}
	}
	p.Children = out
}

// ReplaceRuns swaps every run of a paragraph for the given runs, keeping
// paragraph properties.
func ReplaceRuns(p *Node, runs ...*Node) {
	out := make([]*Node, 0, len(runs)+1)
	for _, c := range p.Children {
		if c.Is("w", "pPr") {
			out = append(out, c)
		}
	}
	p.Children = append(out, runs...)
}

func FirstRunProperties(p *Node) *Node {
	for _, c := range p.Children {
		if c.Is("w", "r") {
			return c.Child("w", "rPr")
		}
	}
	return nil
}
