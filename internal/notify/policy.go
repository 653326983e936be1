package notify

import (
	"github.com/xelth-com/receivinggo/internal/ledger"
	"github.com/xelth-com/receivinggo/internal/models"
)

// SingleUpdateIntents handles an edit of one row: a per-row alert when the row newly
// entered a flagged status, and a completion notice when the whole PO is now Complete.
func SingleUpdateIntents(policy ledger.FlagPolicy, before models.InspectionStatus, after models.LineItemRecord, completion ledger.CompletionResult) []Intent {
	var intents []Intent

	curr := after.Status()
	if policy.Flags(curr) && curr != before {
		item := after
		intents = append(intents, Intent{
			Kind:        alertKind(curr),
			PONumber:    after.PONumber,
			SIDocNumber: after.SIDocNumber,
			Item:        &item,
		})
	}

	if completion.ShouldNotify() {
		intents = append(intents, CompletionIntent(completion))
	}
	return intents
}

// BulkUpdateIntents handles a batch edit: one digest covering every newly flagged row
// (never one mail per row), plus a completion notice when the PO is now Complete.
func BulkUpdateIntents(po, siDoc string, newlyFlagged, all []models.LineItemRecord, completion ledger.CompletionResult) []Intent {
	var intents []Intent
	if len(newlyFlagged) > 0 {
		intents = append(intents, Intent{
			Kind:        KindStatusDigest,
			PONumber:    po,
			SIDocNumber: siDoc,
			Flagged:     newlyFlagged,
			Items:       all,
		})
	}
	if completion.ShouldNotify() {
		intents = append(intents, CompletionIntent(completion))
	}
	return intents
}

// CompletionIntent announces a fully inspected PO
func CompletionIntent(c ledger.CompletionResult) Intent {
	return Intent{
		Kind:          KindCompletion,
		PONumber:      c.PONumber,
		Items:         c.LineItems,
		LineItemCount: len(c.LineItems),
	}
}

// BacklogResolvedIntent announces that a backlogged PO now exists upstream
func BacklogResolvedIntent(po string, invoices []models.Invoice) Intent {
	return Intent{
		Kind:          KindBacklogResolved,
		PONumber:      po,
		InvoiceCount:  len(invoices),
		LineItemCount: models.TotalLineItems(invoices),
	}
}

func alertKind(s models.InspectionStatus) Kind {
	if s == models.InspectionDefective {
		return KindDefectiveAlert
	}
	return KindIncompleteAlert
}
