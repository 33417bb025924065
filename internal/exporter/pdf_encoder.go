package exporter

import (
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
)

// PDFEncoder renders rows as a simple grid on A4 landscape pages. PDF output
// is memory intensive and slow next to CSV or JSON Lines; meant for small
// result sets.
type PDFEncoder struct {
	pdf     *fpdf.Fpdf
	w       io.Writer
	columns int
	err     error
}

// NewPDFEncoder creates a PDF encoder writing to w.
func NewPDFEncoder(w io.Writer) *PDFEncoder {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 10)
	pdf.AddPage()
	return &PDFEncoder{
		pdf: pdf,
		w:   w,
	}
}

func (e *PDFEncoder) WriteHeader(columns []string) error {
	if e.err != nil {
		return e.err
	}
	e.columns = len(columns)

	e.pdf.SetFont("Arial", "B", 10)
	width := e.cellWidth()
	for _, col := range columns {
		e.pdf.CellFormat(width, 7, col, "1", 0, "C", false, 0, "")
	}
	e.pdf.Ln(-1)
	e.pdf.SetFont("Arial", "", 10)
	return nil
}

func (e *PDFEncoder) WriteRow(values []dataverse.Value) error {
	if e.err != nil {
		return e.err
	}

	width := e.cellWidth()
	for _, v := range values {
		e.pdf.CellFormat(width, 7, v.String(), "1", 0, "L", false, 0, "")
	}
	e.pdf.Ln(-1)
	return nil
}

// cellWidth distributes the usable page width evenly across columns.
func (e *PDFEncoder) cellWidth() float64 {
	pageWidth, _ := e.pdf.GetPageSize()
	left, _, right, _ := e.pdf.GetMargins()
	n := e.columns
	if n == 0 {
		n = 1
	}
	return (pageWidth - left - right) / float64(n)
}

func (e *PDFEncoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	return e.pdf.Output(e.w)
}

func (e *PDFEncoder) Error() error {
	return e.err
}

func (e *PDFEncoder) Close() error {
	return e.Flush()
}
