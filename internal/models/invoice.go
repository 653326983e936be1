package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Invoice is a vendor invoice for a PO as returned by the vendor API.
// It is never persisted as a whole; it is projected into LineItemRecords.
type Invoice struct {
	PONumber          string           `json:"poNumber"`
	SIDocNumber       string           `json:"siDocNumber"`
	SIDocDate         string           `json:"siDocDate"`
	SupplierDocNumber string           `json:"supplierDocNumber"`
	SupplierDocDate   string           `json:"supplierDocDate"`
	Supplier          string           `json:"supplier"`
	DueDate           string           `json:"dueDate"`
	ShipDate          string           `json:"shipDate"`
	MerchandiseTotal  decimal.Decimal  `json:"merchandiseTotal"`
	FreightAmount     decimal.Decimal  `json:"freightAmount"`
	SalesTax          decimal.Decimal  `json:"salesTax"`
	DocumentTotal     decimal.Decimal  `json:"documentTotal"`
	IsCredit          bool             `json:"isCredit"`
	Carrier           string           `json:"carrier"`
	TrackingNumber    string           `json:"trackingNumber"`
	Status            string           `json:"status"` // Active, Historical
	ShipTo            Address          `json:"shipTo"`
	SupplierAddress   Address          `json:"supplierAddress"`
	LineItems         []VendorLineItem `json:"lineItems"`

	// Merged from the ledger for display; keyed by LineItemIndex
	Ledger map[int]EditableFields `json:"ledger,omitempty"`
}

// Address is a postal address attached to an invoice
type Address struct {
	Name     string `json:"name,omitempty"`
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// VendorLineItem is one raw invoice line. Optional numbers are nil when the vendor omits them.
type VendorLineItem struct {
	Description        string           `json:"description"`
	SupplierItemNumber string           `json:"supplierItemNumber"`
	UPC                string           `json:"upc,omitempty"`
	QuantityOrdered    *decimal.Decimal `json:"quantityOrdered,omitempty"`
	QuantityShipped    *decimal.Decimal `json:"quantityShipped,omitempty"`
	ListPrice          *decimal.Decimal `json:"listPrice,omitempty"`
	NetPrice           *decimal.Decimal `json:"netPrice,omitempty"`
	Extension          *decimal.Decimal `json:"extension,omitempty"`
}

// NoEDIMarker is the description the vendor uses when line detail lives only in the PDF
const NoEDIMarker = "SEE VENDOR INVOICE"

// HasRealLineItems reports whether the invoice carries EDI line detail
func (inv Invoice) HasRealLineItems() bool {
	if len(inv.LineItems) == 0 {
		return false
	}
	return !strings.Contains(strings.ToUpper(inv.LineItems[0].Description), NoEDIMarker)
}

// TotalLineItems counts line items across invoices
func TotalLineItems(invoices []Invoice) int {
	n := 0
	for _, inv := range invoices {
		n += len(inv.LineItems)
	}
	return n
}
