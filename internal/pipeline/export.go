package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"supplydesk/internal"
	"supplydesk/internal/extract"
	"supplydesk/internal/reconcile"
	"supplydesk/internal/util"
)

const reviewSheet = "Review"

var reviewHeaders = []string{
	"document", "supplier_profile", "query_code", "description", "price",
	"status", "matched_id", "matched_code", "matched_description",
	"suggestion1", "score1", "suggestion2", "score2", "suggestion3", "score3",
}

// ExportReview writes one row per query code for operator review.
func ExportReview(rows []internal.ReviewRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), reviewSheet); err != nil {
		return err
	}

	for i, h := range reviewHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reviewSheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(reviewSheet, cell, value)
		}

		set(1, row.DocumentName)
		set(2, row.Supplier)
		set(3, row.QueryCode)
		set(4, row.Description)
		set(5, row.Price)
		set(6, row.Status)
		set(7, derefInt(row.MatchedID))
		set(8, util.Deref(row.MatchedCode))
		set(9, util.Deref(row.MatchedDesc))
		set(10, util.Deref(row.Suggestion1))
		set(11, derefFloat(row.Suggestion1Pts))
		set(12, util.Deref(row.Suggestion2))
		set(13, derefFloat(row.Suggestion2Pts))
		set(14, util.Deref(row.Suggestion3))
		set(15, derefFloat(row.Suggestion3Pts))
	}

	if err := f.SetPanes(reviewSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ExportDocument writes the review sheet of one processed document.
func ExportDocument(db ReviewSource, documentID int, outputDir string) (string, error) {
	rows, err := db.GetReviewRows(documentID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, reviewFilename(documentID))
	return path, ExportReview(rows, path)
}

type ReviewSource interface {
	GetReviewRows(documentID int) ([]internal.ReviewRow, error)
}

// ReviewRows builds review rows from one extraction and its report
// without touching storage. Matched rows come first, each group in
// extraction order.
func ReviewRows(name string, res extract.Result, report reconcile.Report) []internal.ReviewRow {
	rows := make([]internal.ReviewRow, 0, len(res.Records))
	for i, rec := range res.Records {
		if i >= len(report.Results) {
			break
		}
		match := report.Results[i]
		row := internal.ReviewRow{
			DocumentName: name,
			Supplier:     res.Profile,
			QueryCode:    rec.Code,
			Description:  rec.Description,
			Price:        util.Deref(rec.Price),
			Status:       "unmatched",
		}
		if match.ExactMatch != nil {
			row.Status = "matched"
			row.MatchedID = util.IntPtr(match.ExactMatch.ID)
			row.MatchedCode = util.StringPtr(match.ExactMatch.Code)
			row.MatchedDesc = util.StringPtr(match.ExactMatch.Description)
		}
		slots := []struct {
			code  **string
			score **float64
		}{
			{&row.Suggestion1, &row.Suggestion1Pts},
			{&row.Suggestion2, &row.Suggestion2Pts},
			{&row.Suggestion3, &row.Suggestion3Pts},
		}
		for j, slot := range slots {
			if j >= len(match.Suggestions) {
				break
			}
			*slot.code = util.StringPtr(match.Suggestions[j].Entry.Code)
			*slot.score = util.FloatPtr(match.Suggestions[j].Score)
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Status == "matched" && rows[j].Status != "matched"
	})
	return rows
}

func reviewFilename(documentID int) string {
	return fmt.Sprintf("review-%d.xlsx", documentID)
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
