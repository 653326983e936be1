package models

// Deal is a CRM deal matched to a PO
type Deal struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  string            `json:"createdAt,omitempty"`
	UpdatedAt  string            `json:"updatedAt,omitempty"`
}

// DealLineItem is a CRM line item attached to a deal
type DealLineItem struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}
