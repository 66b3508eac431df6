package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1254")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// DocumentField is one label/value line in a contract document.
type DocumentField struct {
	Label string
	Value string
}

// DocumentSection groups related fields under a heading.
type DocumentSection struct {
	Title  string
	Fields []DocumentField
}

// ContractDocument describes a printable contract: a letterhead, the student
// it concerns and one or more field sections followed by a signature block.
type ContractDocument struct {
	SchoolName string
	Title      string
	Subtitle   string
	IssuedAt   string
	Sections   []DocumentSection
	Signatures []string
}

// RenderDocument produces the printable contract PDF. Combined documents
// pass multiple sections; each contract kind becomes its own section.
func (e *PDFExporter) RenderDocument(doc ContractDocument) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf document requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1254")

	if doc.SchoolName != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, tr(doc.SchoolName), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 9, tr(strings.ToUpper(doc.Title)), "", 1, "C", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	if doc.IssuedAt != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, tr("Tarih: "+doc.IssuedAt), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	for _, section := range doc.Sections {
		if section.Title != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.SetFillColor(235, 235, 235)
			pdf.CellFormat(0, 8, tr(section.Title), "1", 1, "L", true, 0, "")
		}
		pdf.SetFont("Arial", "", 10)
		for _, field := range section.Fields {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(60, 7, tr(field.Label), "1", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(120, 7, tr(field.Value), "1", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	if len(doc.Signatures) > 0 {
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		width := 180.0 / float64(len(doc.Signatures))
		for _, label := range doc.Signatures {
			pdf.CellFormat(width, 7, tr(label), "", 0, "C", false, 0, "")
		}
		pdf.Ln(12)
		for range doc.Signatures {
			pdf.CellFormat(width, 7, "___________________", "", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf document: %w", err)
	}
	return buf.Bytes(), nil
}
