// Package admitcard renders the PDF admit card a student brings to an exam.
package admitcard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/signintech/gopdf"

	"github.com/stemsi/exstem-online/internal/model"
)

var ErrFontUnavailable = errors.New("admit card font unavailable")

const (
	fontFamily = "admit"
	marginX    = 50.0
	lineHeight = 22.0
	footerNote = "Please bring this admit card on the day of examination."
)

// Renderer draws admit cards with a TrueType font loaded from disk.
type Renderer struct {
	fontPath string
}

// NewRenderer creates a Renderer using the TTF at fontPath.
func NewRenderer(fontPath string) *Renderer {
	return &Renderer{fontPath: fontPath}
}

// Filename is the suggested download name for an exam's admit card.
func Filename(exam model.Exam) string {
	return fmt.Sprintf("admit_card_%s.pdf", exam.ID)
}

// Render writes a one-page A4 admit card for user and exam to w.
func (r *Renderer) Render(w io.Writer, exam model.Exam, user model.User) error {
	if _, err := os.Stat(r.fontPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFontUnavailable, err)
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFont(fontFamily, r.fontPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFontUnavailable, err)
	}

	y := 60.0
	if err := writeLine(pdf, 20, "ADMIT CARD", &y); err != nil {
		return err
	}
	y += lineHeight / 2
	if err := writeLine(pdf, 16, exam.Title, &y); err != nil {
		return err
	}
	pdf.SetLineWidth(1)
	pdf.Line(marginX, y, gopdf.PageSizeA4.W-marginX, y)
	y += lineHeight

	for _, f := range fields(exam, user) {
		if err := writeLine(pdf, 12, f.label+": "+f.value, &y); err != nil {
			return err
		}
	}

	y += lineHeight
	if err := writeLine(pdf, 10, footerNote, &y); err != nil {
		return err
	}

	if _, err := pdf.WriteTo(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type field struct{ label, value string }

func fields(exam model.Exam, user model.User) []field {
	return []field{
		{"Student Name", user.FullName},
		{"Username", user.Username},
		{"Email", user.Email},
		{"Exam Start", exam.StartTime.Format("2006-01-02 15:04 MST")},
		{"Duration", fmt.Sprintf("%d minutes", exam.DurationMinutes)},
		{"Total Marks", fmt.Sprintf("%d", exam.TotalMarks)},
	}
}

func writeLine(pdf *gopdf.GoPdf, size float64, text string, y *float64) error {
	if err := pdf.SetFont(fontFamily, "", size); err != nil {
		return fmt.Errorf("set font: %w", err)
	}
	pdf.SetXY(marginX, *y)
	if err := pdf.Cell(nil, text); err != nil {
		return fmt.Errorf("draw text: %w", err)
	}
	*y += lineHeight
	return nil
}
