// Package render turns document records into PDF artifacts.
package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
)

// Options configures the rendered layout.
type Options struct {
	// CompanyName printed in the header
	CompanyName string

	// FooterNote printed under the totals block, optional
	FooterNote string

	// Currency label appended to amounts (default "EUR")
	Currency string
}

// PDFRenderer renders document records to PDF.
// Output is deterministic: the same record always produces the same bytes,
// so rendered artifacts can be cached and compared.
type PDFRenderer struct {
	opts Options
}

// NewPDFRenderer creates a renderer.
func NewPDFRenderer(opts Options) *PDFRenderer {
	if opts.Currency == "" {
		opts.Currency = "EUR"
	}
	return &PDFRenderer{opts: opts}
}

func title(docType document.Type) string {
	if docType == document.TypeQuote {
		return "QUOTE"
	}
	return "INVOICE"
}

// Render produces the PDF for a record.
// Refuses records that cannot make a meaningful document: no line items,
// no assigned number, or no counterparty.
func (r *PDFRenderer) Render(rec *document.Record) ([]byte, error) {
	if len(rec.Items) == 0 {
		return nil, apperror.NewRenderingFailure("document has no line items")
	}
	if rec.Number == "" {
		return nil, apperror.NewRenderingFailure("document has no number assigned")
	}
	if rec.CounterpartyName == "" {
		return nil, apperror.NewRenderingFailure("document has no counterparty")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	// The creation date comes from the record, not the wall clock, so
	// re-rendering an unchanged record yields identical bytes.
	pdf.SetCreationDate(rec.UpdatedAt.UTC())
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	header := title(rec.Type)
	if r.opts.CompanyName != "" {
		header = r.opts.CompanyName + " " + header
	}
	pdf.Cell(0, 10, header)
	pdf.Ln(15)

	// Document details
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Number: %s", rec.Number))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Issue Date: %s", rec.IssueDate.Format("02-Jan-2006")))
	pdf.Ln(8)
	if !rec.DueDate.IsZero() {
		pdf.Cell(0, 8, fmt.Sprintf("Due Date: %s", rec.DueDate.Format("02-Jan-2006")))
		pdf.Ln(8)
	}
	pdf.Ln(5)

	// Counterparty
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "BILL TO:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, rec.CounterpartyName)
	pdf.Ln(6)
	if rec.CounterpartyEmail != "" {
		pdf.Cell(0, 6, rec.CounterpartyEmail)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	// Items table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	headers := []string{"Description", "Qty", "Unit Price", "Amount"}
	colWidths := []float64{80, 20, 35, 35}
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(255, 255, 255)
	for _, item := range rec.Items {
		desc := item.Name
		if item.Specification != "" {
			desc += " - " + item.Specification
		}
		pdf.CellFormat(colWidths[0], 8, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, item.LineTotal.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(8)
	}
	pdf.Ln(5)

	// Totals block
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(135, 6, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, r.amount(rec.Totals.Subtotal.StringFixed(2)), "", 0, "R", false, 0, "")
	pdf.Ln(6)
	if rec.Totals.DiscountAmount.IsPositive() {
		pdf.CellFormat(135, 6, "Discount:", "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, "-"+r.amount(rec.Totals.DiscountAmount.StringFixed(2)), "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}
	if rec.Totals.Tax.IsPositive() {
		pdf.CellFormat(135, 6, "Tax:", "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, r.amount(rec.Totals.Tax.StringFixed(2)), "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(135, 8, "TOTAL:", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, r.amount(rec.Totals.Total.StringFixed(2)), "", 0, "R", false, 0, "")
	pdf.Ln(10)

	if r.opts.FooterNote != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.Cell(0, 6, r.opts.FooterNote)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperror.NewRenderingFailure(fmt.Sprintf("pdf output: %v", err))
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) amount(s string) string {
	return s + " " + r.opts.Currency
}
