package docx

import (
	"strconv"
	"strings"
)

type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// Relationships is the editable relationship table of one part.
type Relationships struct {
	source string
	path   string
	doc    *Node
}

func (p *Package) Relationships(sourcePart string) (*Relationships, error) {
	relsPath := relsPathFor(sourcePart)
	blob, ok := p.Part(relsPath)
	if !ok {
		doc := &Node{Kind: DocumentNode}
		doc.Append(
			&Node{Kind: RawNode, Data: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`},
			NewElement("", "Relationships", NewAttr("", "xmlns", "http://schemas.openxmlformats.org/package/2006/relationships")),
		)
		return &Relationships{source: sourcePart, path: relsPath, doc: doc}, nil
	}
	doc, err := Parse(blob)
	if err != nil || doc.Root() == nil {
		return nil, &StructuralError{Part: relsPath, Reason: "malformed relationships", Cause: err}
	}
	return &Relationships{source: sourcePart, path: relsPath, doc: doc}, nil
}

func relationshipNodes(doc *Node) []*Node {
	root := doc.Root()
	if root == nil {
		return nil
	}
	out := make([]*Node, 0, len(root.Children))
	for _, c := range root.Children {
		if c.Is("", "Relationship") {
			out = append(out, c)
		}
	}
	return out
}

func (r *Relationships) List() []Relationship {
	nodes := relationshipNodes(r.doc)
	out := make([]Relationship, 0, len(nodes))
	for _, n := range nodes {
		id, _ := n.Attr("", "Id")
		relType, _ := n.Attr("", "Type")
		target, _ := n.Attr("", "Target")
		mode, _ := n.Attr("", "TargetMode")
		out = append(out, Relationship{ID: id, Type: relType, Target: target, External: strings.EqualFold(mode, "External")})
	}
	return out
}

func (r *Relationships) Get(id string) (Relationship, bool) {
	for _, rel := range r.List() {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

func (r *Relationships) CountType(relType string) int {
	n := 0
	for _, rel := range r.List() {
		if rel.Type == relType {
			n++
		}
	}
	return n
}

// Add appends a relationship and returns its generated id.
func (r *Relationships) Add(relType, target string, external bool) string {
	id := "rId" + strconv.Itoa(r.maxID()+1)
	node := NewElement("", "Relationship",
		NewAttr("", "Id", id),
		NewAttr("", "Type", relType),
		NewAttr("", "Target", target),
	)
	if external {
		node.Attrs = append(node.Attrs, NewAttr("", "TargetMode", "External"))
	}
	r.doc.Root().Append(node)
	return id
}

func (r *Relationships) maxID() int {
	highest := 0
	for _, rel := range r.List() {
		if !strings.HasPrefix(rel.ID, "rId") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

func (r *Relationships) Save(p *Package) {
	p.SetPart(r.path, r.doc.Encode())
}

// PartFor resolves an internal relationship to the part it points at.
func (r *Relationships) PartFor(id string) (string, bool) {
	rel, ok := r.Get(id)
	if !ok || rel.External {
		return "", false
	}
	return ResolveTarget(r.source, rel.Target), true
}
