package tables

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"supplydesk/internal/util"
)

// FromXLSX reads every sheet as a table. Pictures anchored to a cell become
// media references of that cell.
func FromXLSX(content []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	media := mediaMap{}
	doc := &Document{Source: SourceXLSX, media: media}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		table := Table{Name: sheet}
		for _, raw := range rows {
			row := Row{Cells: make([]Cell, 0, len(raw))}
			for _, v := range raw {
				row.Cells = append(row.Cells, Cell{Text: util.NormalizeSpaces(v)})
			}
			table.Rows = append(table.Rows, row)
		}

		pictureCells, err := f.GetPictureCells(sheet)
		if err == nil {
			for _, ref := range pictureCells {
				col, rowNo, err := excelize.CellNameToCoordinates(ref)
				if err != nil {
					continue
				}
				pics, err := f.GetPictures(sheet, ref)
				if err != nil || len(pics) == 0 {
					continue
				}
				key := fmt.Sprintf("%s!%s", sheet, ref)
				media[key] = pics[0].File
				for len(table.Rows) < rowNo {
					table.Rows = append(table.Rows, Row{})
				}
				row := &table.Rows[rowNo-1]
				for len(row.Cells) < col {
					row.Cells = append(row.Cells, Cell{})
				}
				row.Cells[col-1].MediaRefs = append(row.Cells[col-1].MediaRefs, key)
			}
		}
		doc.Tables = append(doc.Tables, table)
	}
	doc.Text = flattenRows(doc.Tables)
	return doc, nil
}
