package models

import "strings"

// InspectionStatus is the human-entered outcome of receiving inspection for one line item
type InspectionStatus string

// Inspection status constants
const (
	InspectionUnset      InspectionStatus = ""
	InspectionIncomplete InspectionStatus = "Incomplete"
	InspectionDefective  InspectionStatus = "Defective"
	InspectionIncorrect  InspectionStatus = "Incorrect"
	InspectionMissing    InspectionStatus = "Missing"
	InspectionComplete   InspectionStatus = "Complete"
)

// ParseInspectionStatus trims surrounding whitespace; unknown values are kept as-is
func ParseInspectionStatus(raw string) InspectionStatus {
	return InspectionStatus(strings.TrimSpace(raw))
}

// Invoice and item status values written to the ledger
const (
	InvoiceStatusActive     = "Active"
	InvoiceStatusHistorical = "Historical"
)

// PlaceholderDescription marks the single row written for an invoice without line items
const PlaceholderDescription = "No line items"

// LineItemRecord is one ledger row: a vendor invoice line merged with inspection data.
// Descriptive fields are owned by the vendor and overwritten on every sync.
// Editable fields are owned by the ledger and never overwritten by a sync.
type LineItemRecord struct {
	// Key
	PONumber      string `json:"poNumber"`
	SIDocNumber   string `json:"siDocNumber"`
	LineItemIndex int    `json:"lineItemIndex"`

	// Descriptive
	SIDocDate       string `json:"siDocDate"`
	SupplierName    string `json:"supplierName"`
	ShipDate        string `json:"shipDate"`
	InvoiceTotal    string `json:"invoiceTotal"`
	InvoiceStatus   string `json:"invoiceStatus"`
	ItemDescription string `json:"itemDescription"`
	QuantityShipped string `json:"quantityShipped"`
	UnitPrice       string `json:"unitPrice"`
	LineItemTotal   string `json:"lineItemTotal"`
	ItemStatus      string `json:"itemStatus"`
	LastUpdated     string `json:"lastUpdated"`

	// Editable
	ActualShippingDate string `json:"actualShippingDate"`
	Inspector          string `json:"inspector"`
	InspectionStatus   string `json:"inspectionStatus"`
	InspectionNotes    string `json:"inspectionNotes"`
	MovedToOtherShelf  string `json:"movedToOtherShelf"`
	ShelfLocation      string `json:"shelfLocation"`
	NewShelfLocation   string `json:"newShelfLocation"`
	TrackingNumber     string `json:"trackingNumber"`

	// RowNumber is the 1-based ledger row this record was read from (0 when not persisted)
	RowNumber int `json:"rowNumber,omitempty"`
}

// Status returns the trimmed inspection status
func (r LineItemRecord) Status() InspectionStatus {
	return ParseInspectionStatus(r.InspectionStatus)
}

// IsPlaceholder reports whether this row stands in for an invoice with no line items
func (r LineItemRecord) IsPlaceholder() bool {
	return r.LineItemIndex == 0
}

// EditableFields is the ledger-owned part of a record
type EditableFields struct {
	ActualShippingDate string `json:"actualShippingDate"`
	Inspector          string `json:"inspector"`
	InspectionStatus   string `json:"inspectionStatus"`
	InspectionNotes    string `json:"inspectionNotes"`
	MovedToOtherShelf  string `json:"movedToOtherShelf"`
	ShelfLocation      string `json:"shelfLocation"`
	NewShelfLocation   string `json:"newShelfLocation"`
	TrackingNumber     string `json:"trackingNumber"`
}

// Editable extracts the ledger-owned fields
func (r LineItemRecord) Editable() EditableFields {
	return EditableFields{
		ActualShippingDate: r.ActualShippingDate,
		Inspector:          r.Inspector,
		InspectionStatus:   r.InspectionStatus,
		InspectionNotes:    r.InspectionNotes,
		MovedToOtherShelf:  r.MovedToOtherShelf,
		ShelfLocation:      r.ShelfLocation,
		NewShelfLocation:   r.NewShelfLocation,
		TrackingNumber:     r.TrackingNumber,
	}
}

// WithEditable returns a copy of r carrying the given ledger-owned fields
func (r LineItemRecord) WithEditable(e EditableFields) LineItemRecord {
	r.ActualShippingDate = e.ActualShippingDate
	r.Inspector = e.Inspector
	r.InspectionStatus = e.InspectionStatus
	r.InspectionNotes = e.InspectionNotes
	r.MovedToOtherShelf = e.MovedToOtherShelf
	r.ShelfLocation = e.ShelfLocation
	r.NewShelfLocation = e.NewShelfLocation
	r.TrackingNumber = e.TrackingNumber
	return r
}

// FieldEdits is a partial update of editable fields. Nil fields are left untouched.
// JSON names match the ledger column headers so clients can send them as displayed.
type FieldEdits struct {
	ActualShippingDate *string `json:"Actual Shipping Date,omitempty"`
	Inspector          *string `json:"Inspector,omitempty"`
	InspectionStatus   *string `json:"Inspection Status,omitempty"`
	InspectionNotes    *string `json:"Inspection Notes,omitempty"`
	MovedToOtherShelf  *string `json:"Moved to Other Shelf,omitempty"`
	ShelfLocation      *string `json:"Shelf Location,omitempty"`
	NewShelfLocation   *string `json:"New Shelf Location,omitempty"`
	TrackingNumber     *string `json:"Tracking Number,omitempty"`
}

// IsEmpty reports whether no field is set
func (f FieldEdits) IsEmpty() bool {
	return f.ActualShippingDate == nil && f.Inspector == nil && f.InspectionStatus == nil &&
		f.InspectionNotes == nil && f.MovedToOtherShelf == nil && f.ShelfLocation == nil &&
		f.NewShelfLocation == nil && f.TrackingNumber == nil
}

// ApplyTo overlays the set fields onto r
func (f FieldEdits) ApplyTo(r LineItemRecord) LineItemRecord {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&r.ActualShippingDate, f.ActualShippingDate)
	set(&r.Inspector, f.Inspector)
	set(&r.InspectionStatus, f.InspectionStatus)
	set(&r.InspectionNotes, f.InspectionNotes)
	set(&r.MovedToOtherShelf, f.MovedToOtherShelf)
	set(&r.ShelfLocation, f.ShelfLocation)
	set(&r.NewShelfLocation, f.NewShelfLocation)
	set(&r.TrackingNumber, f.TrackingNumber)
	return r
}

// LineItemUpdate targets one line item of an invoice
type LineItemUpdate struct {
	LineItemIndex int        `json:"lineItemIndex" validate:"min=0"`
	Fields        FieldEdits `json:"updates"`
}
