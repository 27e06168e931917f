// Package export builds spreadsheet exports of exam results.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/stemsi/exstem-online/internal/model"
)

const sheetName = "Results"

var header = []any{"Username", "Full Name", "Email", "Marks Obtained", "Total Marks", "Percentage", "Status", "Submitted At", "Email Sent"}

// Filename is the suggested download name for an exam's results workbook.
func Filename(exam model.Exam) string {
	return fmt.Sprintf("results_%s.xlsx", exam.ID)
}

// WriteResults writes an XLSX workbook with one row per result to w.
func WriteResults(w io.Writer, exam model.Exam, rows []model.ResultRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &[]any{exam.Title}); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, "A2", &header); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		values := []any{
			r.Username,
			r.FullName,
			r.Email,
			r.MarksObtained,
			r.TotalMarks,
			fmt.Sprintf("%.2f", r.Percentage),
			string(r.Status),
			r.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
			yesNo(r.EmailSent),
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
