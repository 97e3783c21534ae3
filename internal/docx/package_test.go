package docx_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplydesk/internal/docx"
	"supplydesk/internal/docx/docxtest"
)

func TestMainDocumentFollowsPackageRelationship(t *testing.T) {
	blob := docxtest.Document(docxtest.Paragraph("hello"), nil, nil)
	pkg, err := docx.Open(blob)
	require.NoError(t, err)

	name, root, err := pkg.MainDocument()
	require.NoError(t, err)
	assert.Equal(t, "word/document.xml", name)
	assert.Equal(t, "hello", docx.ParagraphText(root.Find("w", "p")))
}

func TestMainDocumentStructuralErrors(t *testing.T) {
	_, err := docx.Open([]byte("not a zip"))
	var se *docx.StructuralError
	require.True(t, errors.As(err, &se))

	p := docx.New()
	p.SetPart("docProps/app.xml", []byte(`<Properties/>`))
	_, _, err = p.MainDocument()
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Error(), "missing primary document part")

	p.SetPart("word/document.xml", []byte(`<w:document xmlns:w="urn:w"></w:document>`))
	_, _, err = p.MainDocument()
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Error(), "missing document body")
}

func TestRelationshipsAddAndImage(t *testing.T) {
	blob := docxtest.Document(docxtest.Paragraph("x"), []docxtest.Rel{
		{ID: "rId4", Type: docx.RelTypeHyperlink, Target: "https://example.com", External: true},
	}, nil)
	pkg, err := docx.Open(blob)
	require.NoError(t, err)

	rels, err := pkg.Relationships("word/document.xml")
	require.NoError(t, err)
	id := rels.Add(docx.RelTypeHyperlink, "https://example.org/a?b=1&c=2", true)
	assert.Equal(t, "rId5", id)

	imgID, err := pkg.AddImage(rels, docxtest.PNG(4, 2))
	require.NoError(t, err)
	assert.Equal(t, "rId6", imgID)
	rels.Save(pkg)

	part, ok := rels.PartFor(imgID)
	require.True(t, ok)
	assert.Equal(t, "word/media/sd_image1.png", part)

	out, err := pkg.Bytes()
	require.NoError(t, err)
	reopened, err := docx.Open(out)
	require.NoError(t, err)
	rels2, err := reopened.Relationships("word/document.xml")
	require.NoError(t, err)
	assert.Equal(t, 2, rels2.CountType(docx.RelTypeHyperlink))
	link, ok := rels2.Get("rId5")
	require.True(t, ok)
	assert.Equal(t, "https://example.org/a?b=1&c=2", link.Target)
	assert.True(t, link.External)

	types, _ := reopened.Part(docx.ContentTypesPart)
	assert.True(t, strings.Contains(string(types), `Extension="png"`))
	_, ok = reopened.Part("word/media/sd_image1.png")
	assert.True(t, ok)
}

func TestImageExtentKeepsAspect(t *testing.T) {
	cx, cy := docx.ImageExtent(docxtest.PNG(400, 200), 1000000)
	assert.Equal(t, int64(1000000), cx)
	assert.Equal(t, int64(500000), cy)

	cx, cy = docx.ImageExtent([]byte("garbage"), 900)
	assert.Equal(t, int64(900), cx)
	assert.Equal(t, int64(900), cy)
}
