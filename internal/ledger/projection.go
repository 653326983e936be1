package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/receivinggo/internal/models"
)

// Timestamp formats the Last Updated value
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ProjectInvoice expands an invoice into ledger records with blank editable fields.
// Line item i gets index i+1; an invoice with no lines yields one placeholder with index 0.
// fallbackPO is used when the vendor omits the PO number on the document.
func ProjectInvoice(inv models.Invoice, fallbackPO string, now time.Time) []models.LineItemRecord {
	po := strings.TrimSpace(inv.PONumber)
	if po == "" {
		po = strings.TrimSpace(fallbackPO)
	}
	status := inv.Status
	if status == "" {
		status = models.InvoiceStatusActive
	}

	base := models.LineItemRecord{
		PONumber:      po,
		SIDocNumber:   strings.TrimSpace(inv.SIDocNumber),
		SIDocDate:     inv.SIDocDate,
		SupplierName:  inv.Supplier,
		ShipDate:      inv.ShipDate,
		InvoiceTotal:  inv.DocumentTotal.String(),
		InvoiceStatus: status,
		ItemStatus:    status,
		LastUpdated:   Timestamp(now),
	}

	if len(inv.LineItems) == 0 {
		placeholder := base
		placeholder.LineItemIndex = 0
		placeholder.ItemDescription = models.PlaceholderDescription
		return []models.LineItemRecord{placeholder}
	}

	records := make([]models.LineItemRecord, 0, len(inv.LineItems))
	for i, li := range inv.LineItems {
		rec := base
		rec.LineItemIndex = i + 1
		rec.ItemDescription = describe(li)

		qty := firstOf(li.QuantityShipped, li.QuantityOrdered)
		price := decimal.Zero
		if p := firstOf(li.NetPrice, li.ListPrice); p != nil {
			price = *p
		}
		if qty != nil {
			rec.QuantityShipped = qty.String()
		}
		rec.UnitPrice = price.String()
		rec.LineItemTotal = lineTotal(li.Extension, price, qty).String()

		records = append(records, rec)
	}
	return records
}

// ProjectInvoices projects every invoice for a PO
func ProjectInvoices(invoices []models.Invoice, po string, now time.Time) []models.LineItemRecord {
	var out []models.LineItemRecord
	for _, inv := range invoices {
		out = append(out, ProjectInvoice(inv, po, now)...)
	}
	return out
}

func describe(li models.VendorLineItem) string {
	if li.Description != "" {
		return li.Description
	}
	if li.SupplierItemNumber != "" {
		return li.SupplierItemNumber
	}
	return "Unnamed Item"
}

func lineTotal(extension *decimal.Decimal, price decimal.Decimal, qty *decimal.Decimal) decimal.Decimal {
	if extension != nil {
		return *extension
	}
	if qty == nil || price.IsZero() || qty.IsZero() {
		return decimal.Zero
	}
	return price.Mul(*qty)
}

func firstOf(values ...*decimal.Decimal) *decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
