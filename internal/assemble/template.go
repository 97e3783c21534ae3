package assemble

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"supplydesk/internal/docx"
)

// Tags look like {name}, {#loop}, {/loop} and {%image}.
var reTag = regexp.MustCompile(`\{([#/%]?)([A-Za-z][A-Za-z0-9_]*)\}`)

// Scope binds template names for one level of the merge. Lookups that miss
// fall through to the parent scope.
type Scope struct {
	Values map[string]string
	Images map[string][]byte
	Loops  map[string][]*Scope
	parent *Scope
}

func NewScope() *Scope {
	return &Scope{Values: map[string]string{}, Images: map[string][]byte{}, Loops: map[string][]*Scope{}}
}

func (s *Scope) value(name string) string {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.Values[name]; ok {
			return v
		}
	}
	return ""
}

func (s *Scope) image(name string) []byte {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.Images[name]; ok {
			return v
		}
	}
	return nil
}

func (s *Scope) loop(name string) []*Scope {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.Loops[name]; ok {
			return v
		}
	}
	return nil
}

// merger renders one document part in place.
type merger struct {
	pkg       *docx.Package
	part      string
	rels      *docx.Relationships
	imageEMU  int64
	nextDocPr int
	media     map[[32]byte]string
}

func newMerger(pkg *docx.Package, part string, imageEMU int64) (*merger, error) {
	rels, err := pkg.Relationships(part)
	if err != nil {
		return nil, err
	}
	return &merger{pkg: pkg, part: part, rels: rels, imageEMU: imageEMU, nextDocPr: 4000, media: map[[32]byte]string{}}, nil
}

func (m *merger) structural(reason string, args ...any) error {
	return &docx.StructuralError{Part: m.part, Reason: fmt.Sprintf(reason, args...)}
}

// renderChildren merges the children of a container element. Paragraphs
// holding only {#name} and {/name} repeat the siblings between them.
func (m *merger) renderChildren(parent *docx.Node, s *Scope) error {
	children := parent.Children
	out := make([]*docx.Node, 0, len(children))
	for i := 0; i < len(children); i++ {
		c := children[i]
		switch {
		case c.Is("w", "p"):
			docx.CollapseRuns(c)
			if name, ok := blockTag(c, "#"); ok {
				end, err := m.closingParagraph(children, i, name)
				if err != nil {
					return err
				}
				rendered, err := m.repeat(children[i+1:end], s.loop(name), s)
				if err != nil {
					return err
				}
				out = append(out, rendered...)
				i = end
				continue
			}
			if err := m.renderRuns(c, s); err != nil {
				return err
			}
			out = append(out, c)
		case c.Is("w", "tbl"):
			if err := m.renderTable(c, s); err != nil {
				return err
			}
			out = append(out, c)
		case c.Kind == docx.ElementNode && !c.Is("w", "sectPr"):
			if err := m.renderChildren(c, s); err != nil {
				return err
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	parent.Children = out
	return nil
}

func (m *merger) closingParagraph(children []*docx.Node, open int, name string) (int, error) {
	depth := 0
	for j := open + 1; j < len(children); j++ {
		c := children[j]
		if !c.Is("w", "p") {
			continue
		}
		docx.CollapseRuns(c)
		if n, ok := blockTag(c, "#"); ok && n == name {
			depth++
		}
		if n, ok := blockTag(c, "/"); ok && n == name {
			if depth == 0 {
				return j, nil
			}
			depth--
		}
	}
	return 0, m.structural("unclosed loop {#%s}", name)
}

// repeat clones block once per item scope and renders each copy.
func (m *merger) repeat(block []*docx.Node, items []*Scope, parent *Scope) ([]*docx.Node, error) {
	var out []*docx.Node
	for _, item := range items {
		item.parent = parent
		holder := docx.NewElement("", "loop")
		for _, n := range block {
			holder.Append(n.Clone())
		}
		if err := m.renderChildren(holder, item); err != nil {
			return nil, err
		}
		out = append(out, holder.Children...)
	}
	return out, nil
}

// renderTable expands row loops: a row containing {#name} starts the block
// and the first row containing {/name} ends it, possibly the same row.
func (m *merger) renderTable(tbl *docx.Node, s *Scope) error {
	children := tbl.Children
	out := make([]*docx.Node, 0, len(children))
	for i := 0; i < len(children); i++ {
		row := children[i]
		if !row.Is("w", "tr") {
			out = append(out, row)
			continue
		}
		collapseAll(row)
		name, ok := firstTag(row, "#")
		if !ok {
			if err := m.renderChildren(row, s); err != nil {
				return err
			}
			out = append(out, row)
			continue
		}
		end := -1
		for j := i; j < len(children); j++ {
			if children[j].Is("w", "tr") {
				collapseAll(children[j])
				if hasTag(children[j], "/", name) {
					end = j
					break
				}
			}
		}
		if end < 0 {
			return m.structural("unclosed row loop {#%s}", name)
		}
		stripTag(row, "#", name)
		stripTag(children[end], "/", name)
		rendered, err := m.repeat(children[i:end+1], s.loop(name), s)
		if err != nil {
			return err
		}
		out = append(out, rendered...)
		i = end
	}
	tbl.Children = out
	return nil
}

// renderRuns substitutes scalars and images in every run below n.
func (m *merger) renderRuns(n *docx.Node, s *Scope) error {
	out := make([]*docx.Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.Is("w", "r") {
			if c.Kind == docx.ElementNode && !c.Is("w", "pPr") {
				if err := m.renderRuns(c, s); err != nil {
					return err
				}
			}
			out = append(out, c)
			continue
		}
		if c.Child("w", "t") == nil {
			out = append(out, c)
			continue
		}
		text := docx.ParagraphText(c)
		if !strings.Contains(text, "{") {
			out = append(out, c)
			continue
		}
		if name, ok := imageTag(text); ok {
			run, err := m.imageRun(s.image(name), name)
			if err != nil {
				return err
			}
			if run != nil {
				out = append(out, run)
			}
			continue
		}
		merged := reTag.ReplaceAllStringFunc(text, func(tag string) string {
			sub := reTag.FindStringSubmatch(tag)
			if sub[1] != "" {
				return ""
			}
			return s.value(sub[2])
		})
		out = append(out, docx.NewTextRun(c.Child("w", "rPr"), merged))
	}
	n.Children = out
	return nil
}

func (m *merger) imageRun(data []byte, name string) (*docx.Node, error) {
	if len(data) == 0 {
		return nil, nil
	}
	key := sha256.Sum256(data)
	relID, ok := m.media[key]
	if !ok {
		var err error
		relID, err = m.pkg.AddImage(m.rels, data)
		if err != nil {
			return nil, fmt.Errorf("embed image {%%%s}: %w", name, err)
		}
		m.media[key] = relID
	}
	m.nextDocPr++
	cx, cy := docx.ImageExtent(data, m.imageEMU)
	return docx.InlineImageRun(relID, m.nextDocPr, fmt.Sprintf("%s %d", name, m.nextDocPr), cx, cy)
}

func blockTag(p *docx.Node, kind string) (string, bool) {
	text := strings.TrimSpace(docx.ParagraphText(p))
	sub := reTag.FindStringSubmatch(text)
	if sub == nil || sub[0] != text || sub[1] != kind {
		return "", false
	}
	return sub[2], true
}

func imageTag(text string) (string, bool) {
	text = strings.TrimSpace(text)
	sub := reTag.FindStringSubmatch(text)
	if sub == nil || sub[0] != text || sub[1] != "%" {
		return "", false
	}
	return sub[2], true
}

func collapseAll(n *docx.Node) {
	for _, p := range n.FindAll("w", "p") {
		docx.CollapseRuns(p)
	}
}

func firstTag(n *docx.Node, kind string) (string, bool) {
	for _, t := range n.FindAll("w", "t") {
		for _, sub := range reTag.FindAllStringSubmatch(docx.ParagraphText(t), -1) {
			if sub[1] == kind {
				return sub[2], true
			}
		}
	}
	return "", false
}

func hasTag(n *docx.Node, kind, name string) bool {
	tag := "{" + kind + name + "}"
	for _, t := range n.FindAll("w", "t") {
		if strings.Contains(docx.ParagraphText(t), tag) {
			return true
		}
	}
	return false
}

func stripTag(n *docx.Node, kind, name string) {
	tag := "{" + kind + name + "}"
	for _, t := range n.FindAll("w", "t") {
		for _, c := range t.Children {
			if c.Kind == docx.TextNode {
				c.Data = strings.ReplaceAll(c.Data, tag, "")
			}
		}
	}
}
