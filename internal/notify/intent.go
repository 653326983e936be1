// Package notify decides which emails a ledger change produces and delivers them.
//
// Deciding is pure (policy.go, recipients.go). Delivery happens only in Dispatcher,
// which callers invoke explicitly after their writes have committed.
package notify

import (
	"context"

	"github.com/xelth-com/receivinggo/internal/models"
)

// Kind classifies a notification
type Kind string

// Notification kinds
const (
	KindIncompleteAlert Kind = "incomplete_alert"
	KindDefectiveAlert  Kind = "defective_alert"
	KindStatusDigest    Kind = "status_digest"
	KindCompletion      Kind = "po_completion"
	KindBacklogResolved Kind = "backlog_resolved"
)

// Intent is a notification that should be sent
type Intent struct {
	Kind        Kind   `json:"kind"`
	PONumber    string `json:"poNumber"`
	SIDocNumber string `json:"siDocNumber,omitempty"`

	// Item is the row a per-row alert is about
	Item *models.LineItemRecord `json:"item,omitempty"`
	// Flagged lists rows that newly entered a flagged status (digest)
	Flagged []models.LineItemRecord `json:"flagged,omitempty"`
	// Items is the full set of rows for context (digest, completion)
	Items []models.LineItemRecord `json:"items,omitempty"`

	InvoiceCount  int `json:"invoiceCount,omitempty"`
	LineItemCount int `json:"lineItemCount,omitempty"`
}

// Message is a rendered email
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Notifier delivers messages. It reports success and never fails the caller.
type Notifier interface {
	Send(ctx context.Context, msg Message) bool
}
