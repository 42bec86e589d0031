package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pdfDetailLabelWidth = 40.0
	pdfTableLineHeight  = 5.0
	pdfDefaultImageW    = 100.0
)

// PDFRenderer lays a document out on portrait A4 pages: centered title
// block, horizontal rule, then the section plan in order, with a page-number
// footer.
type PDFRenderer struct{}

// Extension returns the artifact filename suffix.
func (PDFRenderer) Extension() string { return ".pdf" }

// Render serializes the document to PDF bytes.
func (r PDFRenderer) Render(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 7, "Data Generated - "+doc.GeneratedAt.Format("02/01/2006"), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	y := pdf.GetY()
	pdf.Line(left, y, pageW-right, y)
	pdf.Ln(5)

	imageIndex := 0
	for _, section := range doc.Sections {
		switch s := section.(type) {
		case Heading:
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 15)
			pdf.CellFormat(0, 8, tr(s.Text), "", 1, "L", false, 0, "")
			pdf.Ln(2)
		case DetailList:
			r.renderDetails(pdf, tr, s)
		case Table:
			r.renderTable(pdf, tr, s)
		case Image:
			imageIndex++
			r.renderImage(pdf, s, imageIndex)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (PDFRenderer) renderDetails(pdf *fpdf.Fpdf, tr func(string) string, list DetailList) {
	pdf.SetFillColor(240, 240, 240)
	for _, d := range list.Rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(pdfDetailLabelWidth, 8, tr(d.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 8, tr(d.Value), "", "L", true)
	}
}

func (r PDFRenderer) renderTable(pdf *fpdf.Fpdf, tr func(string) string, t Table) {
	if t.Title != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 10, tr(t.Title), "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}
	if len(t.Header) == 0 {
		return
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(t.Header))

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(0, 255, 255)
	r.renderTableRow(pdf, tr, t.Header, colW)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetFillColor(255, 255, 240)
	for _, row := range t.Rows {
		r.renderTableRow(pdf, tr, row, colW)
	}
	pdf.Ln(4)
}

func (PDFRenderer) renderTableRow(pdf *fpdf.Fpdf, tr func(string) string, cells []string, colW float64) {
	lines := 1
	for _, cell := range cells {
		if n := len(pdf.SplitLines([]byte(tr(cell)), colW-2)); n > lines {
			lines = n
		}
	}
	rowH := float64(lines) * pdfTableLineHeight

	_, pageH := pdf.GetPageSize()
	left, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+rowH > pageH-bottom {
		pdf.AddPage()
	}

	x, y := left, pdf.GetY()
	for _, cell := range cells {
		pdf.Rect(x, y, colW, rowH, "FD")
		pdf.SetXY(x+1, y)
		pdf.MultiCell(colW-2, pdfTableLineHeight, tr(cell), "", "C", false)
		x += colW
	}
	pdf.SetXY(left, y+rowH)
}

func (PDFRenderer) renderImage(pdf *fpdf.Fpdf, img Image, index int) {
	if len(img.PNG) == 0 {
		return
	}
	if img.Caption != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, img.Caption, "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}

	width := img.Width
	if width <= 0 {
		width = pdfDefaultImageW
	}
	pageW, _ := pdf.GetPageSize()

	name := fmt.Sprintf("section-image-%d", index)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.PNG))
	pdf.ImageOptions(name, (pageW-width)/2, 0, width, 0, true, opts, 0, "")
	pdf.Ln(3)
}
