package sportsinc

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/xelth-com/receivinggo/internal/models"
)

type documentsResponse struct {
	Items []document `json:"items"`
}

type document struct {
	PONumber          flexString      `json:"poNumber"`
	SIDocNumber       flexString      `json:"siDocNumber"`
	SIDocDate         string          `json:"siDocDate"`
	SupplierDocNumber flexString      `json:"supplierDocNumber"`
	SupplierDocDate   string          `json:"supplierDocDate"`
	Supplier          string          `json:"supplier"`
	DueDate           string          `json:"dueDate"`
	ShipDate          string          `json:"shipDate"`
	MerchandiseTotal  decimal.Decimal `json:"merchandiseTotal"`
	FreightAmount     decimal.Decimal `json:"freightAmount"`
	SalesTax          decimal.Decimal `json:"salesTax"`
	DocTotal          decimal.Decimal `json:"docTotal"`
	IsCredit          bool            `json:"isCredit"`
	Carrier           string          `json:"carrier"`
	TrackingNumber    flexString      `json:"trackingNumber"`
	Active            bool            `json:"active"`
	ShippingAddress   *address        `json:"shippingAddress"`
	SupplierAddress   *address        `json:"supplierAddress"`
	Lines             []line          `json:"lines"`
}

type address struct {
	Name        string     `json:"name"`
	Address1    string     `json:"address1"`
	Address2    string     `json:"address2"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	Zipcode     flexString `json:"zipcode"`
	PhoneNumber string     `json:"phoneNumber"`
}

type line struct {
	Description        string           `json:"description"`
	SupplierItemNumber flexString       `json:"supplierItemNumber"`
	UPC                flexString       `json:"upc"`
	QuantityOrdered    *decimal.Decimal `json:"quantityOrdered"`
	QuantityShipped    *decimal.Decimal `json:"quantityShipped"`
	ListPrice          *decimal.Decimal `json:"listPrice"`
	NetPrice           *decimal.Decimal `json:"netPrice"`
	Extension          *decimal.Decimal `json:"extension"`
}

// flexString accepts JSON strings and numbers; document numbers arrive as either
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (d document) toInvoice(requestedPO string) models.Invoice {
	po := string(d.PONumber)
	if po == "" {
		po = requestedPO
	}
	status := models.InvoiceStatusHistorical
	if d.Active {
		status = models.InvoiceStatusActive
	}

	inv := models.Invoice{
		PONumber:          po,
		SIDocNumber:       string(d.SIDocNumber),
		SIDocDate:         d.SIDocDate,
		SupplierDocNumber: string(d.SupplierDocNumber),
		SupplierDocDate:   d.SupplierDocDate,
		Supplier:          d.Supplier,
		DueDate:           d.DueDate,
		ShipDate:          d.ShipDate,
		MerchandiseTotal:  d.MerchandiseTotal,
		FreightAmount:     d.FreightAmount,
		SalesTax:          d.SalesTax,
		DocumentTotal:     d.DocTotal,
		IsCredit:          d.IsCredit,
		Carrier:           d.Carrier,
		TrackingNumber:    string(d.TrackingNumber),
		Status:            status,
		ShipTo:            d.ShippingAddress.toModel(),
		SupplierAddress:   d.SupplierAddress.toModel(),
	}
	for _, l := range d.Lines {
		inv.LineItems = append(inv.LineItems, models.VendorLineItem{
			Description:        l.Description,
			SupplierItemNumber: string(l.SupplierItemNumber),
			UPC:                string(l.UPC),
			QuantityOrdered:    l.QuantityOrdered,
			QuantityShipped:    l.QuantityShipped,
			ListPrice:          l.ListPrice,
			NetPrice:           l.NetPrice,
			Extension:          l.Extension,
		})
	}
	return inv
}

func (a *address) toModel() models.Address {
	if a == nil {
		return models.Address{}
	}
	return models.Address{
		Name:     a.Name,
		Address1: a.Address1,
		Address2: a.Address2,
		City:     a.City,
		State:    a.State,
		Zip:      string(a.Zipcode),
		Phone:    a.PhoneNumber,
	}
}
