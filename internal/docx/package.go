package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

const (
	NSMain          = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NSRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSWordDrawing   = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NSDrawingMain   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NSPicture       = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"

	ContentTypesPart = "[Content_Types].xml"
	DocxContentType  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Package is an in-memory OOXML zip package.
type Package struct {
	names []string
	parts map[string][]byte
}

func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &StructuralError{Reason: "not a zip package", Cause: err}
	}
	p := &Package{parts: map[string][]byte{}}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &StructuralError{Part: f.Name, Reason: "unreadable part", Cause: err}
		}
		blob, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, &StructuralError{Part: f.Name, Reason: "unreadable part", Cause: err}
		}
		p.names = append(p.names, f.Name)
		p.parts[f.Name] = blob
	}
	return p, nil
}

func OpenFile(filePath string) (*Package, error) {
	blob, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return Open(blob)
}

func (p *Package) Part(name string) ([]byte, bool) {
	blob, ok := p.parts[strings.TrimPrefix(name, "/")]
	return blob, ok
}

func (p *Package) SetPart(name string, data []byte) {
	name = strings.TrimPrefix(name, "/")
	if _, ok := p.parts[name]; !ok {
		p.names = append(p.names, name)
	}
	p.parts[name] = data
}

func (p *Package) PartNames() []string {
	return append([]string(nil), p.names...)
}

// Bytes serialises the package, writing the content types part first.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	ordered := make([]string, 0, len(p.names))
	if _, ok := p.parts[ContentTypesPart]; ok {
		ordered = append(ordered, ContentTypesPart)
	}
	for _, name := range p.names {
		if name != ContentTypesPart {
			ordered = append(ordered, name)
		}
	}
	for _, name := range ordered {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(p.parts[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MainDocumentPath follows the package relationship to the primary text part.
func (p *Package) MainDocumentPath() (string, error) {
	if blob, ok := p.Part("_rels/.rels"); ok {
		root, err := Parse(blob)
		if err != nil {
			return "", &StructuralError{Part: "_rels/.rels", Reason: "malformed relationships", Cause: err}
		}
		for _, rel := range relationshipNodes(root) {
			relType, _ := rel.Attr("", "Type")
			if relType == RelTypeOfficeDocument || strings.HasSuffix(relType, "/officeDocument") {
				target, _ := rel.Attr("", "Target")
				target = strings.TrimPrefix(path.Clean("/"+target), "/")
				if _, ok := p.Part(target); ok {
					return target, nil
				}
			}
		}
	}
	if _, ok := p.Part("word/document.xml"); ok {
		return "word/document.xml", nil
	}
	return "", &StructuralError{Reason: "missing primary document part"}
}

// MainDocument parses the primary text part and checks that it has a body.
func (p *Package) MainDocument() (string, *Node, error) {
	name, err := p.MainDocumentPath()
	if err != nil {
		return "", nil, err
	}
	blob, _ := p.Part(name)
	root, err := Parse(blob)
	if err != nil {
		return "", nil, &StructuralError{Part: name, Reason: "malformed markup", Cause: err}
	}
	if root.Find("w", "body") == nil {
		return "", nil, &StructuralError{Part: name, Reason: "missing document body"}
	}
	return name, root, nil
}

func (p *Package) EnsureDefaultContentType(ext, contentType string) error {
	blob, ok := p.Part(ContentTypesPart)
	if !ok {
		return &StructuralError{Part: ContentTypesPart, Reason: "missing content types"}
	}
	root, err := Parse(blob)
	if err != nil {
		return &StructuralError{Part: ContentTypesPart, Reason: "malformed content types", Cause: err}
	}
	types := root.Root()
	if types == nil {
		return &StructuralError{Part: ContentTypesPart, Reason: "empty content types"}
	}
	for _, c := range types.Children {
		if c.Is("", "Default") {
			if v, _ := c.Attr("", "Extension"); strings.EqualFold(v, ext) {
				return nil
			}
		}
	}
	types.Children = append([]*Node{NewElement("", "Default",
		NewAttr("", "Extension", ext),
		NewAttr("", "ContentType", contentType),
	)}, types.Children...)
	p.SetPart(ContentTypesPart, root.Encode())
	return nil
}

func partDir(partName string) string {
	return path.Dir(strings.TrimPrefix(partName, "/"))
}

func relsPathFor(partName string) string {
	partName = strings.TrimPrefix(partName, "/")
	return path.Join(partDir(partName), "_rels", path.Base(partName)+".rels")
}

// ResolveTarget turns a relationship target into a package part name.
func ResolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Clean("/"+path.Join(partDir(sourcePart), target)), "/")
}

func (p *Package) String() string {
	return fmt.Sprintf("docx.Package(%d parts)", len(p.names))
}

func New() *Package {
	return &Package{parts: map[string][]byte{}}
}
