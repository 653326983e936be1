package ledger

import (
	"strconv"

	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/tabular"
)

// Column positions. Order is significant: rows are written positionally.
const (
	ColPONumber = iota
	ColSIDocNumber
	ColSIDocDate
	ColSupplierName
	ColShipDate
	ColInvoiceTotal
	ColInvoiceStatus
	ColLineItemIndex
	ColItemDescription
	ColQuantityShipped
	ColUnitPrice
	ColLineItemTotal
	ColItemStatus
	ColLastUpdated
	ColActualShippingDate
	ColInspector
	ColInspectionStatus
	ColInspectionNotes
	ColMovedToOtherShelf
	ColShelfLocation
	ColNewShelfLocation
	ColTrackingNumber

	columnCount
)

// FirstEditableColumn is the first ledger-owned column (O)
const FirstEditableColumn = ColActualShippingDate

// Header is the ledger header row
var Header = []string{
	"PO Number",
	"SI Doc Number",
	"SI Doc Date",
	"Supplier Name",
	"Ship Date",
	"Invoice Total",
	"Invoice Status",
	"Line Item Index",
	"Item Description",
	"Quantity Shipped",
	"Unit Price",
	"Line Item Total",
	"Item Status",
	"Last Updated",
	"Actual Shipping Date",
	"Inspector",
	"Inspection Status",
	"Inspection Notes",
	"Moved to Other Shelf",
	"Shelf Location",
	"New Shelf Location",
	"Tracking Number",
}

// Width is the number of columns the ledger writes
func Width() int { return columnCount }

// RecordFromRow maps a stored row to a record. rowNumber is the 1-based sheet row.
func RecordFromRow(row []string, rowNumber int) models.LineItemRecord {
	c := func(i int) string { return tabular.Cell(row, i) }
	return models.LineItemRecord{
		PONumber:           c(ColPONumber),
		SIDocNumber:        c(ColSIDocNumber),
		LineItemIndex:      ParseLineIndex(c(ColLineItemIndex)),
		SIDocDate:          c(ColSIDocDate),
		SupplierName:       c(ColSupplierName),
		ShipDate:           c(ColShipDate),
		InvoiceTotal:       c(ColInvoiceTotal),
		InvoiceStatus:      c(ColInvoiceStatus),
		ItemDescription:    c(ColItemDescription),
		QuantityShipped:    c(ColQuantityShipped),
		UnitPrice:          c(ColUnitPrice),
		LineItemTotal:      c(ColLineItemTotal),
		ItemStatus:         c(ColItemStatus),
		LastUpdated:        c(ColLastUpdated),
		ActualShippingDate: c(ColActualShippingDate),
		Inspector:          c(ColInspector),
		InspectionStatus:   c(ColInspectionStatus),
		InspectionNotes:    c(ColInspectionNotes),
		MovedToOtherShelf:  c(ColMovedToOtherShelf),
		ShelfLocation:      c(ColShelfLocation),
		NewShelfLocation:   c(ColNewShelfLocation),
		TrackingNumber:     c(ColTrackingNumber),
		RowNumber:          rowNumber,
	}
}

// RowFromRecord maps a record to a full-width row
func RowFromRecord(r models.LineItemRecord) []string {
	row := make([]string, columnCount)
	row[ColPONumber] = r.PONumber
	row[ColSIDocNumber] = r.SIDocNumber
	row[ColSIDocDate] = r.SIDocDate
	row[ColSupplierName] = r.SupplierName
	row[ColShipDate] = r.ShipDate
	row[ColInvoiceTotal] = r.InvoiceTotal
	row[ColInvoiceStatus] = r.InvoiceStatus
	row[ColLineItemIndex] = strconv.Itoa(r.LineItemIndex)
	row[ColItemDescription] = r.ItemDescription
	row[ColQuantityShipped] = r.QuantityShipped
	row[ColUnitPrice] = r.UnitPrice
	row[ColLineItemTotal] = r.LineItemTotal
	row[ColItemStatus] = r.ItemStatus
	row[ColLastUpdated] = r.LastUpdated
	row[ColActualShippingDate] = r.ActualShippingDate
	row[ColInspector] = r.Inspector
	row[ColInspectionStatus] = r.InspectionStatus
	row[ColInspectionNotes] = r.InspectionNotes
	row[ColMovedToOtherShelf] = r.MovedToOtherShelf
	row[ColShelfLocation] = r.ShelfLocation
	row[ColNewShelfLocation] = r.NewShelfLocation
	row[ColTrackingNumber] = r.TrackingNumber
	return row
}

// headerIsCurrent reports whether the stored header already starts with Header
func headerIsCurrent(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	for i, h := range Header {
		if tabular.Cell(rows[0], i) != h {
			return false
		}
	}
	return true
}
