// Package render turns generated procedure text into shareable documents.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
)

// ErrRender is returned when a document cannot be produced.
var ErrRender = errors.New("render failed")

const (
	pageMargin   = 50.0
	bodyTop      = 100.0
	bodyLineH    = 14.0
	headingLineH = 20.0
)

// PDFRenderer lays out procedure text on Letter pages. Lines starting with
// "## " become headings and lines wrapped in ** are set in bold.
type PDFRenderer struct {
	now func() time.Time
}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{now: time.Now}
}

// Render returns the PDF bytes for content.
func (r *PDFRenderer) Render(content, projectID string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, _ := pdf.GetPageSize()
	generated := r.now().Format("2006-01-02 15:04")

	pdf.SetMargins(pageMargin, bodyTop, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetHeaderFunc(func() {
		title := "Test Procedure: " + projectID
		if pdf.PageNo() > 1 {
			title += " (Cont.)"
		}
		pdf.SetFont("Helvetica", "B", 16)
		pdf.Text(pageMargin, 50, tr(title))
		if pdf.PageNo() == 1 {
			pdf.SetFont("Helvetica", "", 10)
			pdf.Text(pageMargin, 70, "Generated: "+generated)
		}
		pdf.Line(pageMargin, 80, width-pageMargin, 80)
		pdf.SetY(bodyTop)
	})

	pdf.AddPage()
	bodyWidth := width - 2*pageMargin

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "## "):
			pdf.Ln(6)
			pdf.SetFont("Helvetica", "B", 14)
			pdf.MultiCell(bodyWidth, headingLineH, tr(strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))), "", "L", false)
		case len(trimmed) > 4 && strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**"):
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(bodyWidth, bodyLineH, tr(strings.ReplaceAll(trimmed, "**", "")), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(bodyWidth, bodyLineH, tr(line), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}
