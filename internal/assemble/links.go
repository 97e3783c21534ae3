package assemble

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"supplydesk/internal/docx"
)

// linkMarkers numbers the link placeholders of one render. The nonce keeps
// operator text shaped like a marker from being turned into a hyperlink.
type linkMarkers struct {
	nonce   string
	targets []string
}

func newLinkMarkers() *linkMarkers {
	return &linkMarkers{nonce: strings.ReplaceAll(uuid.NewString(), "-", "")}
}

// add registers target and returns the marker text that stands for it.
func (l *linkMarkers) add(target string) string {
	marker := fmt.Sprintf("__SDLINK_%s_%04d__", l.nonce, len(l.targets))
	l.targets = append(l.targets, target)
	return marker
}

func (l *linkMarkers) pattern() *regexp.Regexp {
	return regexp.MustCompile(`__SDLINK_` + regexp.QuoteMeta(l.nonce) + `_(\d+)__`)
}

// linkInjector turns marker text left by the merge into relationship-backed
// hyperlinks. It runs after rendering because the merge can only place text.
type linkInjector struct {
	marker  *regexp.Regexp
	rels    *docx.Relationships
	targets []string
	label   string
	added   int
}

// injectHyperlinks rewrites every marker run in the given part into a
// w:hyperlink and appends one external relationship per marker.
func injectHyperlinks(pkg *docx.Package, part string, links *linkMarkers, label string) (int, error) {
	if len(links.targets) == 0 {
		return 0, nil
	}
	blob, ok := pkg.Part(part)
	if !ok {
		return 0, &docx.StructuralError{Part: part, Reason: "rendered part missing"}
	}
	doc, err := docx.Parse(blob)
	if err != nil {
		return 0, &docx.StructuralError{Part: part, Reason: "malformed rendered markup", Cause: err}
	}
	rels, err := pkg.Relationships(part)
	if err != nil {
		return 0, err
	}
	root := doc.Root()
	root.EnsureNamespace("r", docx.NSRelationships)

	inj := &linkInjector{marker: links.pattern(), rels: rels, targets: links.targets, label: label}
	inj.rewrite(root)
	pkg.SetPart(part, doc.Encode())
	rels.Save(pkg)
	return inj.added, nil
}

func (inj *linkInjector) rewrite(n *docx.Node) {
	out := make([]*docx.Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.Is("w", "r") {
			if c.Kind == docx.ElementNode {
				inj.rewrite(c)
			}
			out = append(out, c)
			continue
		}
		text := docx.ParagraphText(c)
		if !inj.marker.MatchString(text) {
			out = append(out, c)
			continue
		}
		out = append(out, inj.split(c, text)...)
	}
	n.Children = out
}

// split breaks a run around its markers, keeping surrounding text in plain
// runs with the original formatting.
func (inj *linkInjector) split(run *docx.Node, text string) []*docx.Node {
	rPr := run.Child("w", "rPr")
	var out []*docx.Node
	last := 0
	for _, loc := range inj.marker.FindAllStringSubmatchIndex(text, -1) {
		if before := text[last:loc[0]]; before != "" {
			out = append(out, docx.NewTextRun(rPr, before))
		}
		last = loc[1]
		n, _ := strconv.Atoi(text[loc[2]:loc[3]])
		if n < 0 || n >= len(inj.targets) {
			continue
		}
		id := inj.rels.Add(docx.RelTypeHyperlink, inj.targets[n], true)
		inj.added++
		link := docx.NewElement("w", "hyperlink", docx.NewAttr("r", "id", id), docx.NewAttr("w", "history", "1"))
		link.Append(docx.NewTextRun(hyperlinkRunProperties(), inj.label))
		out = append(out, link)
	}
	if after := text[last:]; after != "" {
		out = append(out, docx.NewTextRun(rPr, after))
	}
	return out
}

// hyperlinkRunProperties uses a fresh rPr so the child order stays valid.
func hyperlinkRunProperties() *docx.Node {
	return docx.NewElement("w", "rPr").Append(
		docx.NewElement("w", "rStyle", docx.NewAttr("w", "val", "Hyperlink")),
		docx.NewElement("w", "color", docx.NewAttr("w", "val", "0563C1")),
		docx.NewElement("w", "u", docx.NewAttr("w", "val", "single")),
	)
}
