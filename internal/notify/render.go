package notify

import (
	"bytes"
	"fmt"
	"net/url"
	"text/template"
)

const signature = "---\nSports Plus Inspection System\n"

var funcs = template.FuncMap{
	"dflt": func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	},
}

var bodies = map[Kind]*template.Template{
	KindIncompleteAlert: template.Must(template.New("incomplete").Funcs(funcs).Parse(`INCOMPLETE LINE ITEM

PO Number: {{.PONumber}}
SI Doc Number: {{.SIDocNumber}}
Line Item #{{.Item.LineItemIndex}}: {{.Item.ItemDescription}}
Quantity Shipped: {{dflt .Item.QuantityShipped "N/A"}}

Inspector: {{dflt .Item.Inspector "Not set"}}
Actual Shipping Date: {{dflt .Item.ActualShippingDate "Not set"}}
Inspection Notes: {{dflt .Item.InspectionNotes "None"}}
Shelf Location: {{dflt .Item.ShelfLocation "Not set"}}
Moved to Other Shelf: {{dflt .Item.MovedToOtherShelf "Not set"}}
New Shelf Location: {{dflt .Item.NewShelfLocation "Not set"}}

Supplier: {{dflt .Item.SupplierName "N/A"}}
SI Doc Date: {{dflt .Item.SIDocDate "N/A"}}
Ship Date: {{dflt .Item.ShipDate "N/A"}}
Invoice Total: ${{dflt .Item.InvoiceTotal "0"}}

ACTION REQUIRED: Please review this incomplete line item.
Last Updated: {{.Item.LastUpdated}}

`)),
	KindDefectiveAlert: template.Must(template.New("defective").Funcs(funcs).Parse(`DEFECTIVE LINE ITEM

PO Number: {{.PONumber}}
SI Doc Number: {{.SIDocNumber}}
Line Item #{{.Item.LineItemIndex}}: {{.Item.ItemDescription}}
Quantity Shipped: {{dflt .Item.QuantityShipped "N/A"}}

Inspector: {{dflt .Item.Inspector "Not set"}}
Inspection Notes: {{dflt .Item.InspectionNotes "None"}}
Shelf Location: {{dflt .Item.ShelfLocation "Not set"}}
Tracking Number: {{dflt .Item.TrackingNumber "Not set"}}

Supplier: {{dflt .Item.SupplierName "N/A"}}
Ship Date: {{dflt .Item.ShipDate "N/A"}}

URGENT: A defective item was received. Contact the supplier.
Last Updated: {{.Item.LastUpdated}}

`)),
	KindStatusDigest: template.Must(template.New("digest").Funcs(funcs).Parse(`INSPECTION ALERT DIGEST

PO Number: {{.PONumber}}
SI Doc Number: {{.SIDocNumber}}

Triggered by new Incomplete/Defective updates:
{{range .Flagged}}• Line {{.LineItemIndex}}: {{dflt .ItemDescription "Unnamed Item"}} -> {{dflt .InspectionStatus "N/A"}}
{{end}}
All Line Items:
{{range .Items}}• Line {{.LineItemIndex}}: {{dflt .ItemDescription "Unnamed Item"}} | Qty {{dflt .QuantityShipped "N/A"}} | {{dflt .InspectionStatus "Not inspected"}}
{{end}}
`)),
	KindCompletion: template.Must(template.New("completion").Funcs(funcs).Parse(`ORDER COMPLETE

PO Number: {{.PONumber}}
All {{.LineItemCount}} line item(s) passed inspection.

{{range .Items}}• {{.SIDocNumber}} line {{.LineItemIndex}}: {{dflt .ItemDescription "Unnamed Item"}} (inspector: {{dflt .Inspector "N/A"}})
{{end}}
`)),
	KindBacklogResolved: template.Must(template.New("backlog").Funcs(funcs).Parse(`BACKLOG PO NOW AVAILABLE

PO Number: {{.PONumber}}
Invoices found: {{.InvoiceCount}}
Total line items: {{.LineItemCount}}

The PO has been removed from the backlog.
{{if .PortalLink}}Open it in the portal: {{.PortalLink}}
{{end}}
`)),
}

type renderData struct {
	Intent
	PortalLink string
}

// Render builds the email for an intent
func Render(in Intent, to []string, portalURL string) (Message, error) {
	tmpl, ok := bodies[in.Kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for notification kind %q", in.Kind)
	}
	if (in.Kind == KindIncompleteAlert || in.Kind == KindDefectiveAlert) && in.Item == nil {
		return Message{}, fmt.Errorf("%s intent for PO %s has no line item", in.Kind, in.PONumber)
	}

	data := renderData{Intent: in, PortalLink: PortalLink(portalURL, in.PONumber)}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render %s: %w", in.Kind, err)
	}
	buf.WriteString(signature)

	return Message{To: to, Subject: Subject(in), Body: buf.String()}, nil
}

// Subject returns the email subject line for an intent
func Subject(in Intent) string {
	switch in.Kind {
	case KindIncompleteAlert:
		return fmt.Sprintf("⚠️ INCOMPLETE - PO: %s | Line Item #%d", in.PONumber, itemIndex(in))
	case KindDefectiveAlert:
		return fmt.Sprintf("🚨 DEFECTIVE - PO: %s | Line Item #%d", in.PONumber, itemIndex(in))
	case KindStatusDigest:
		return fmt.Sprintf("⚠️ PO %s - Incomplete/Defective Digest", in.PONumber)
	case KindCompletion:
		return fmt.Sprintf("✅ ORDER COMPLETE - PO: %s", in.PONumber)
	case KindBacklogResolved:
		return fmt.Sprintf("📦 Backlog PO Found - %s", in.PONumber)
	}
	return fmt.Sprintf("PO %s", in.PONumber)
}

// PortalLink points the inspection portal at a PO
func PortalLink(portalURL, po string) string {
	if portalURL == "" {
		return ""
	}
	return portalURL + "?po=" + url.QueryEscape(po)
}

func itemIndex(in Intent) int {
	if in.Item == nil {
		return 0
	}
	return in.Item.LineItemIndex
}
