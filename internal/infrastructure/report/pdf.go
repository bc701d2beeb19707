package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"inventory-tracker/internal/domain/entity"
	"inventory-tracker/internal/usecase"
)

type rgb struct{ r, g, b int }

var statusColors = map[entity.Status]rgb{
	entity.StatusExpired:      {255, 204, 204},
	entity.StatusExpiringSoon: {255, 224, 179},
	entity.StatusSafe:         {244, 244, 244},
}

var columns = []struct {
	title string
	width float64
}{
	{"Name", 60},
	{"Category", 35},
	{"Quantity", 30},
	{"Expiry Date", 30},
	{"Days", 20},
}

// PDFRenderer lays out the inventory report on A4 pages.
type PDFRenderer struct {
	compress bool
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{compress: true}
}

func (p *PDFRenderer) Render(w io.Writer, report *usecase.Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(p.compress)
	pdf.SetTitle("Inventory Report "+report.Date, false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Inventory Report - "+report.Date)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	for _, line := range []string{
		fmt.Sprintf("Total Items: %d", report.Summary.Total),
		fmt.Sprintf("Expired: %d", report.Summary.Expired),
		fmt.Sprintf("Expiring Soon: %d", report.Summary.ExpiringSoon),
		fmt.Sprintf("Safe: %d", report.Summary.Safe),
	} {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	section(pdf, tr, "Expiring Soon", report.Expiring)
	section(pdf, tr, "Expired", report.Expired)
	section(pdf, tr, "All Items", report.Items)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title string, items []*usecase.ItemView) {
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)

	if len(items) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "None")
		pdf.Ln(10)
		return
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(35, 47, 62)
	pdf.SetTextColor(255, 255, 255)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, it := range items {
		c := statusColors[it.Status]
		pdf.SetFillColor(c.r, c.g, c.b)
		cells := []string{
			tr(it.Name),
			tr(it.Category),
			tr(it.DisplayQuantity),
			it.ExpiryDate,
			fmt.Sprintf("%d", it.DaysToExpiry),
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}
