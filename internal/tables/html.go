package tables

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"supplydesk/internal/util"
)

// FromHTML reads HTML tables, the shape order tables take in email bodies.
// Images given as data URIs are resolvable; remote sources are not fetched.
func FromHTML(html string) (*Document, error) {
	page, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	media := mediaMap{}
	doc := &Document{Source: SourceHTML, media: media}
	imageNo := 0
	page.Find("table").Each(func(_ int, table *goquery.Selection) {
		t := Table{}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if !tr.Closest("table").IsSelection(table) {
				return
			}
			row := Row{}
			tr.ChildrenFiltered("th,td").Each(func(_ int, td *goquery.Selection) {
				cell := Cell{Text: util.NormalizeSpaces(td.Text())}
				td.Find("img").Each(func(_ int, img *goquery.Selection) {
					src, ok := img.Attr("src")
					if !ok {
						return
					}
					imageNo++
					ref := fmt.Sprintf("img:%d", imageNo)
					if blob, ok := decodeDataURI(src); ok {
						media[ref] = blob
					}
					cell.MediaRefs = append(cell.MediaRefs, ref)
				})
				row.Cells = append(row.Cells, cell)
			})
			t.Rows = append(t.Rows, row)
		})
		doc.Tables = append(doc.Tables, t)
	})

	lines := util.SplitLines(page.Find("body").Text())
	if len(lines) == 0 {
		doc.Text = flattenRows(doc.Tables)
	} else {
		doc.Text = strings.Join(lines, "\n")
	}
	return doc, nil
}

func decodeDataURI(src string) ([]byte, bool) {
	if !strings.HasPrefix(src, "data:") {
		return nil, false
	}
	comma := strings.IndexByte(src, ',')
	if comma < 0 || !strings.HasSuffix(src[:comma], ";base64") {
		return nil, false
	}
	blob, err := base64.StdEncoding.DecodeString(src[comma+1:])
	if err != nil {
		return nil, false
	}
	return blob, true
}
