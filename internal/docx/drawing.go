package docx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path"
	"strings"
)

const (
	emuPerPixel     = 9525
	DefaultImageEMU = 1260000
)

var imageFormats = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/gif":  "gif",
}

// ImageFormat sniffs raw bytes and reports the extension to store them under.
func ImageFormat(data []byte) (ext, contentType string, ok bool) {
	contentType = http.DetectContentType(data)
	ext, ok = imageFormats[contentType]
	return ext, contentType, ok
}

// ImageExtent returns the drawing size in EMU, scaled so the longest side
// fits within maxEMU while keeping the aspect ratio.
func ImageExtent(data []byte, maxEMU int64) (cx, cy int64) {
	if maxEMU <= 0 {
		maxEMU = DefaultImageEMU
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return maxEMU, maxEMU
	}
	cx = int64(cfg.Width) * emuPerPixel
	cy = int64(cfg.Height) * emuPerPixel
	longest := cx
	if cy > longest {
		longest = cy
	}
	if longest > maxEMU {
		cx = cx * maxEMU / longest
		cy = cy * maxEMU / longest
	}
	if cx == 0 {
		cx = 1
	}
	if cy == 0 {
		cy = 1
	}
	return cx, cy
}

// AddImage stores image bytes as a media part next to the source part and
// registers an image relationship for it.
func (p *Package) AddImage(rels *Relationships, data []byte) (string, error) {
	ext, contentType, ok := ImageFormat(data)
	if !ok {
		return "", fmt.Errorf("unsupported image content type %s", contentType)
	}
	if err := p.EnsureDefaultContentType(ext, contentType); err != nil {
		return "", err
	}
	dir := partDir(rels.source)
	var target string
	for i := 1; ; i++ {
		target = fmt.Sprintf("media/sd_image%d.%s", i, ext)
		if _, exists := p.Part(path.Join(dir, target)); !exists {
			break
		}
	}
	p.SetPart(path.Join(dir, target), data)
	return rels.Add(RelTypeImage, target, false), nil
}

const inlineImageMarkup = `<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">` +
	`<wp:extent cx="%[1]d" cy="%[2]d"/><wp:docPr id="%[3]d" name="%[4]s"/>` +
	`<wp:cNvGraphicFramePr><a:graphicFrameLocks xmlns:a="` + NSDrawingMain + `" noChangeAspect="1"/></wp:cNvGraphicFramePr>` +
	`<a:graphic xmlns:a="` + NSDrawingMain + `"><a:graphicData uri="` + NSPicture + `">` +
	`<pic:pic xmlns:pic="` + NSPicture + `"><pic:nvPicPr><pic:cNvPr id="%[3]d" name="%[4]s"/><pic:cNvPicPr/></pic:nvPicPr>` +
	`<pic:blipFill><a:blip r:embed="%[5]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>` +
	`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[2]d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>` +
	`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`

// InlineImageRun builds a run holding an inline picture that references relID.
// The document root must declare the wp and r prefixes.
func InlineImageRun(relID string, id int, name string, cx, cy int64) (*Node, error) {
	name = attrEscaper.Replace(strings.TrimSpace(name))
	return ParseFragment(fmt.Sprintf(inlineImageMarkup, cx, cy, id, name, relID))
}

// EmbeddedImageRefs lists the relationship ids of pictures referenced below n.
func EmbeddedImageRefs(n *Node) []string {
	var refs []string
	n.Walk(func(c *Node) bool {
		switch {
		case c.Is("a", "blip"):
			if id, ok := c.Attr("r", "embed"); ok && id != "" {
				refs = append(refs, id)
			}
		case c.Is("v", "imagedata"):
			if id, ok := c.Attr("r", "id"); ok && id != "" {
				refs = append(refs, id)
			}
		}
		return true
	})
	return refs
}
