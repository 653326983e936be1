package ledger

import "github.com/xelth-com/receivinggo/internal/models"

// CompletionResult describes whether every row of a PO passed inspection
type CompletionResult struct {
	PONumber    string                  `json:"poNumber"`
	AllComplete bool                    `json:"allComplete"`
	LineItems   []models.LineItemRecord `json:"lineItems"`
}

// ShouldNotify is true only for a PO that has rows and all of them are Complete
func (c CompletionResult) ShouldNotify() bool {
	return c.AllComplete && len(c.LineItems) > 0
}

// Completion evaluates the rows of po among records. The status must equal
// "Complete" exactly; a PO with no rows is never complete.
func Completion(po string, records []models.LineItemRecord) CompletionResult {
	res := CompletionResult{PONumber: po}
	for _, r := range records {
		if SamePO(r.PONumber, po) {
			res.LineItems = append(res.LineItems, r)
		}
	}
	if len(res.LineItems) == 0 {
		return res
	}
	res.AllComplete = true
	for _, r := range res.LineItems {
		if r.InspectionStatus != string(models.InspectionComplete) {
			res.AllComplete = false
			break
		}
	}
	return res
}
