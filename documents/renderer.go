// Package documents renders invoice PDFs and delivers them by mail, archiving
// a copy in object storage when one is configured.
package documents

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"github.com/satheeshds/invoicing/models"
)

// Renderer turns an invoice into a document.
type Renderer interface {
	Render(inv *models.Invoice, client *models.Client, payURL string) ([]byte, error)
}

// PDFRenderer lays invoices out on A4 with gofpdf.
type PDFRenderer struct {
	Issuer string
}

func NewPDFRenderer(issuer string) *PDFRenderer {
	return &PDFRenderer{Issuer: issuer}
}

func (r *PDFRenderer) Render(inv *models.Invoice, client *models.Client, payURL string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	if r.Issuer != "" {
		pdf.Cell(0, 6, r.Issuer)
		pdf.Ln(8)
	}
	pdf.Cell(0, 6, "Invoice number: "+inv.InvoiceNumber)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Issued: "+inv.CreatedAt.Format("02 Jan 2006"))
	pdf.Ln(6)
	if inv.DueDate != nil {
		pdf.Cell(0, 6, "Due date: "+inv.DueDate.Format("02 Jan 2006"))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Bill to")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range clientLines(client) {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(6)

	widths := []float64{95, 25, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Description", "Qty", "Unit price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range inv.Items {
		pdf.CellFormat(widths[0], 7, it.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, it.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, it.UnitPrice.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, it.Amount.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	cur := strings.ToUpper(inv.Currency)
	label := widths[0] + widths[1] + widths[2]
	for _, row := range []struct {
		name  string
		value models.Money
		bold  bool
	}{
		{"Subtotal", inv.Subtotal, false},
		{"Tax", inv.Tax, false},
		{"Total (" + cur + ")", inv.TotalAmount, true},
	} {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(label, 7, row.name, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, row.value.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if payURL != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(0, 6, "Pay online (link valid for 24 hours):")
		pdf.Ln(6)
		pdf.SetTextColor(0, 0, 200)
		pdf.CellFormat(0, 6, payURL, "", 1, "L", false, 0, payURL)
		pdf.SetTextColor(0, 0, 0)
	}
	if inv.Notes != nil && *inv.Notes != "" {
		pdf.Ln(6)
		pdf.MultiCell(0, 5, *inv.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func clientLines(c *models.Client) []string {
	if c == nil {
		return nil
	}
	lines := []string{c.Name}
	for _, p := range []*string{c.Company, c.Address, c.State, c.Country} {
		if p != nil && *p != "" {
			lines = append(lines, *p)
		}
	}
	if c.GSTNumber != nil && *c.GSTNumber != "" {
		lines = append(lines, "GST: "+*c.GSTNumber)
	}
	return append(lines, c.Email)
}
