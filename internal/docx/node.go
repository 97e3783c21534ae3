package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type NodeKind int

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	RawNode
)

// Node is a lossless XML tree node. Element names keep their raw prefix in
// Name.Space so markup can be written back exactly as the producer spelled it.
type Node struct {
	Kind     NodeKind
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node
	Data     string
}

func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root := &Node{Kind: DocumentNode}
	stack := []*Node{root}
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Kind: ElementNode, Name: t.Name, Attrs: append([]xml.Attr(nil), t.Attr...)}
			top.Children = append(top.Children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 1 || top.Name != t.Name {
				return nil, fmt.Errorf("unexpected end element </%s>", qname(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			top.Children = append(top.Children, &Node{Kind: TextNode, Data: string(t)})
		case xml.ProcInst:
			top.Children = append(top.Children, &Node{Kind: RawNode, Data: "<?" + t.Target + " " + string(t.Inst) + "?>"})
		case xml.Comment:
			top.Children = append(top.Children, &Node{Kind: RawNode, Data: "<!--" + string(t) + "-->"})
		case xml.Directive:
			top.Children = append(top.Children, &Node{Kind: RawNode, Data: "<!" + string(t) + ">"})
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("unclosed element <%s>", qname(stack[len(stack)-1].Name))
	}
	return root, nil
}

// ParseFragment parses markup holding a single element and returns that element.
func ParseFragment(markup string) (*Node, error) {
	root, err := Parse([]byte(markup))
	if err != nil {
		return nil, err
	}
	for _, c := range root.Children {
		if c.Kind == ElementNode {
			return c, nil
		}
	}
	return nil, fmt.Errorf("fragment has no element")
}

func (n *Node) Encode() []byte {
	var b bytes.Buffer
	n.write(&b)
	return b.Bytes()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func (n *Node) write(b *bytes.Buffer) {
	switch n.Kind {
	case DocumentNode:
		for _, c := range n.Children {
			c.write(b)
		}
	case TextNode:
		b.WriteString(textEscaper.Replace(n.Data))
	case RawNode:
		b.WriteString(n.Data)
	case ElementNode:
		b.WriteByte('<')
		b.WriteString(qname(n.Name))
		for _, a := range n.Attrs {
			b.WriteByte(' ')
			b.WriteString(qname(a.Name))
			b.WriteString(`="`)
			b.WriteString(attrEscaper.Replace(a.Value))
			b.WriteByte('"')
		}
		if len(n.Children) == 0 {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		for _, c := range n.Children {
			c.write(b)
		}
		b.WriteString("</")
		b.WriteString(qname(n.Name))
		b.WriteByte('>')
	}
}

func qname(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func NewElement(prefix, local string, attrs ...xml.Attr) *Node {
	return &Node{Kind: ElementNode, Name: xml.Name{Space: prefix, Local: local}, Attrs: attrs}
}

func NewText(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

func NewAttr(prefix, local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Space: prefix, Local: local}, Value: value}
}

func (n *Node) Is(prefix, local string) bool {
	return n != nil && n.Kind == ElementNode && n.Name.Space == prefix && n.Name.Local == local
}

func (n *Node) Attr(prefix, local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Space == prefix && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) SetAttr(prefix, local, value string) {
	for i, a := range n.Attrs {
		if a.Name.Space == prefix && a.Name.Local == local {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, NewAttr(prefix, local, value))
}

func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Child returns the first direct element child with the given name.
func (n *Node) Child(prefix, local string) *Node {
	for _, c := range n.Children {
		if c.Is(prefix, local) {
			return c
		}
	}
	return nil
}

// Find returns the first descendant element with the given name in document order.
func (n *Node) Find(prefix, local string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c != n && c.Is(prefix, local) {
			found = c
			return false
		}
		return true
	})
	return found
}

func (n *Node) FindAll(prefix, local string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c != n && c.Is(prefix, local) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Walk visits n and its descendants depth first. Returning false skips the
// children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func (n *Node) Clone() *Node {
	out := &Node{Kind: n.Kind, Name: n.Name, Data: n.Data}
	if len(n.Attrs) > 0 {
		out.Attrs = append([]xml.Attr(nil), n.Attrs...)
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Root returns the top element of a parsed part.
func (n *Node) Root() *Node {
	if n.Kind == ElementNode {
		return n
	}
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			return c
		}
	}
	return nil
}

// EnsureNamespace declares xmlns:prefix on the element when it is missing.
func (n *Node) EnsureNamespace(prefix, uri string) {
	if _, ok := n.Attr("xmlns", prefix); ok {
		return
	}
	n.Attrs = append(n.Attrs, NewAttr("xmlns", prefix, uri))
}
