package docx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncodeKeepsPrefixes(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<w:document xmlns:w="urn:w"><w:body><w:p><w:r><w:t xml:space="preserve">A &amp; B</w:t></w:r></w:p><w:p/></w:body></w:document>`
	root, err := Parse([]byte(src))
	require.NoError(t, err)

	out := string(root.Encode())
	assert.Equal(t, src, out)
	assert.Equal(t, "A & B", ParagraphText(root.Find("w", "p")))
}

func TestParseRejectsMismatchedTags(t *testing.T) {
	_, err := Parse([]byte(`<a><b></a></b>`))
	require.Error(t, err)
	_, err = Parse([]byte(`<a><b>`))
	require.Error(t, err)
}

func TestParagraphTextSkipsProperties(t *testing.T) {
	p, err := ParseFragment(`<w:p><w:pPr><w:tabs><w:tab w:val="left"/></w:tabs></w:pPr><w:r><w:t>A</w:t><w:tab/><w:t>B</w:t><w:br/><w:t>C</w:t></w:r></w:p>`)
	require.NoError(t, err)
	assert.Equal(t, "A\tB\nC", ParagraphText(p))
}

func TestCollapseRunsMergesSplitPlaceholder(t *testing.T) {
	p, err := ParseFragment(`<w:p><w:pPr/><w:r><w:rPr><w:b/></w:rPr><w:t>{add</w:t></w:r><w:proofErr/><w:r><w:t>ress}</w:t></w:r></w:p>`)
	require.NoError(t, err)

	CollapseRuns(p)

	assert.Equal(t, "{address}", ParagraphText(p))
	runs := 0
	for _, c := range p.Children {
		if c.Is("w", "r") {
			runs++
			assert.NotNil(t, c.Child("w", "rPr"))
		}
	}
	assert.Equal(t, 1, runs)
	assert.True(t, p.Children[0].Is("w", "pPr"))
}

func TestCollapseRunsKeepsParagraphsWithoutTags(t *testing.T) {
	src := `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Bold</w:t></w:r><w:r><w:t>plain</w:t></w:r>` +
		`<w:r><w:fldChar w:fldCharType="begin"/></w:r><w:r><w:instrText>PAGE</w:instrText></w:r><w:r><w:fldChar w:fldCharType="end"/></w:r></w:p>`
	p, err := ParseFragment(src)
	require.NoError(t, err)
	before := string(p.Encode())

	CollapseRuns(p)

	assert.Equal(t, before, string(p.Encode()))
	assert.Len(t, p.FindAll("w", "fldChar"), 2)
}

func TestCloneIsDeep(t *testing.T) {
	n, err := ParseFragment(`<w:p><w:r><w:t>x</w:t></w:r></w:p>`)
	require.NoError(t, err)
	c := n.Clone()
	c.Find("w", "t").Children[0].Data = "y"
	assert.Equal(t, "x", ParagraphText(n))
	assert.True(t, strings.Contains(string(c.Encode()), ">y<"))
}
