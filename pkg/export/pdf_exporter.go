package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a tabular PDF statement.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title, a table sized to
// its content and a footer with the record count. Columns named in
// Dataset.Numeric are right-aligned.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	widths := columnWidths(pdf, data)

	pdf.SetFont("Arial", "B", 10)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			align := "L"
			if data.numeric(header) {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, row[header], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 8)
	footer := fmt.Sprintf("%d records, generated %s", len(data.Rows), time.Now().Format("02 Jan 2006"))
	pdf.CellFormat(0, 5, footer, "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths distributes the printable width in proportion to each
// column's widest cell, so a long student name does not squeeze the
// amount columns.
func columnWidths(pdf *gofpdf.Fpdf, data Dataset) []float64 {
	const printable = 190.0

	pdf.SetFont("Arial", "B", 10)
	widest := make([]float64, len(data.Headers))
	for i, header := range data.Headers {
		widest[i] = pdf.GetStringWidth(header)
	}
	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			if w := pdf.GetStringWidth(row[header]); w > widest[i] {
				widest[i] = w
			}
		}
	}

	total := 0.0
	for i := range widest {
		widest[i] += 4 // cell padding
		total += widest[i]
	}
	widths := make([]float64, len(widest))
	for i, w := range widest {
		widths[i] = printable * w / total
	}
	return widths
}
