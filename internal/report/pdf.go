package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xelth-com/receivinggo/internal/ledger"
	"github.com/xelth-com/receivinggo/internal/notify"
)

// PDFContentType is the MIME type of InspectionPDF output
const PDFContentType = "application/pdf"

type pdfColumn struct {
	title string
	width float64
	value func(r rowView) string
}

type rowView struct {
	SI, Index, Description, Qty, Inspector, Status, Shelf, Notes string
}

var pdfColumns = []pdfColumn{
	{"SI Doc", 26, func(r rowView) string { return r.SI }},
	{"#", 8, func(r rowView) string { return r.Index }},
	{"Description", 70, func(r rowView) string { return r.Description }},
	{"Qty", 12, func(r rowView) string { return r.Qty }},
	{"Inspector", 28, func(r rowView) string { return r.Inspector }},
	{"Status", 24, func(r rowView) string { return r.Status }},
	{"Shelf", 22, func(r rowView) string { return r.Shelf }},
	{"Notes", 87, func(r rowView) string { return r.Notes }},
}

// InspectionPDF renders a landscape inspection sheet for one PO with a QR code
// linking back to the portal page of the PO
func InspectionPDF(c ledger.CompletionResult, portalURL string, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	// Title block
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(200, 9, fmt.Sprintf("Receiving Inspection - PO %s", c.PONumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	status := "In progress"
	if c.ShouldNotify() {
		status = "All items Complete"
	}
	pdf.CellFormat(200, 6, fmt.Sprintf("%d line item(s) - %s", len(c.LineItems), status), "", 1, "L", false, 0, "")
	pdf.CellFormat(200, 6, "Generated "+generatedAt.Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")

	if portalURL != "" {
		qrPng, err := qrcode.Encode(notify.PortalLink(portalURL, c.PONumber), qrcode.Medium, 256)
		if err != nil {
			return nil, err
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("portal_qr", opts, bytes.NewReader(qrPng))
		pdf.ImageOptions("portal_qr", 257, 8, 30, 30, false, opts, 0, "")
	}

	pdf.SetY(42)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, r := range c.LineItems {
		view := rowView{
			SI:          r.SIDocNumber,
			Index:       fmt.Sprint(r.LineItemIndex),
			Description: r.ItemDescription,
			Qty:         r.QuantityShipped,
			Inspector:   r.Inspector,
			Status:      r.InspectionStatus,
			Shelf:       r.ShelfLocation,
			Notes:       r.InspectionNotes,
		}
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, 6, truncate(pdf, tr(col.value(view)), col.width-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncate shortens s until it fits in width
func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
