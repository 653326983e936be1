// Package receiving ties vendor lookups, the inspection ledger and notifications together.
package receiving

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/ledger"
	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/notify"
	"github.com/xelth-com/receivinggo/internal/services/sportsinc"
	"github.com/xelth-com/receivinggo/internal/websocket"
)

var (
	// ErrQueryRequired is returned for an empty PO query
	ErrQueryRequired = errors.New("query is required")
	// ErrLineItemNotFound is returned when a single update matched no ledger row
	ErrLineItemNotFound = errors.New("line item not found")
	// ErrNotFoundUpstream is returned when the vendor has no invoice for a PO
	ErrNotFoundUpstream = errors.New("invoice not found in vendor system")
)

// VendorClient looks up invoices for a PO
type VendorClient interface {
	FetchByPO(ctx context.Context, po string) ([]models.Invoice, error)
}

// DealSearcher finds CRM deals for a PO
type DealSearcher interface {
	Configured() bool
	SearchByPO(ctx context.Context, po string) ([]models.Deal, error)
}

// Dispatcher delivers notification intents
type Dispatcher interface {
	Dispatch(ctx context.Context, intents []notify.Intent) []notify.Result
}

// Broadcaster pushes live events to connected portals
type Broadcaster interface {
	Broadcast(eventType, po string, payload interface{})
}

// Service implements the receiving workflows
type Service struct {
	ledger     *ledger.Ledger
	vendor     VendorClient
	dispatcher Dispatcher
	deals      DealSearcher
	guard      notify.CompletionGuard
	events     Broadcaster
	policy     ledger.FlagPolicy
	now        func() time.Time
}

// NewService creates a service. Deals, guard and events are optional.
func NewService(l *ledger.Ledger, vendor VendorClient, dispatcher Dispatcher) *Service {
	return &Service{
		ledger:     l,
		vendor:     vendor,
		dispatcher: dispatcher,
		guard:      notify.NoopGuard{},
		policy:     ledger.DefaultFlagPolicy,
		now:        time.Now,
	}
}

// WithDeals enables CRM deal lookup during search
func (s *Service) WithDeals(d DealSearcher) *Service {
	s.deals = d
	return s
}

// WithCompletionGuard suppresses repeated completion notices
func (s *Service) WithCompletionGuard(g notify.CompletionGuard) *Service {
	s.guard = g
	return s
}

// WithEvents publishes ledger changes to b
func (s *Service) WithEvents(b Broadcaster) *Service {
	s.events = b
	return s
}

// SearchResult is the response of a PO search
type SearchResult struct {
	Query       string               `json:"query"`
	Invoices    []models.Invoice     `json:"invoices"`
	Deals       []models.Deal        `json:"deals,omitempty"`
	LedgerSync  *ledger.UpsertResult `json:"ledgerSync,omitempty"`
	LedgerError string               `json:"ledgerError,omitempty"`
	VendorError string               `json:"vendorError,omitempty"`
	DealsError  string               `json:"dealsError,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

// Search fetches every invoice for the PO, syncs them into the ledger and merges
// ledger-owned fields back for display. Only missing vendor credentials fail the search;
// vendor outages, ledger and CRM failures are reported on the result.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	po := strings.TrimSpace(query)
	if po == "" {
		return nil, ErrQueryRequired
	}
	logger := log.WithField("po", po)
	logger.Info("🔍 Search")

	res := &SearchResult{Query: po, Invoices: []models.Invoice{}, Timestamp: s.now().UTC()}

	invoices, err := s.vendor.FetchByPO(ctx, po)
	switch {
	case errors.Is(err, sportsinc.ErrMissingCredentials):
		return nil, err
	case err != nil:
		logger.Warnf("⚠️  Vendor fetch failed: %v", err)
		res.VendorError = err.Error()
	case invoices != nil:
		res.Invoices = invoices
	}

	for _, inv := range res.Invoices {
		if !inv.HasRealLineItems() {
			logger.WithFields(log.Fields{"siDoc": inv.SIDocNumber, "lines": len(inv.LineItems)}).
				Info("Invoice has no EDI line detail")
		}
	}

	if len(res.Invoices) > 0 {
		sync, err := s.ledger.Upsert(ctx, ledger.ProjectInvoices(res.Invoices, po, s.now()))
		if err != nil {
			logger.Warnf("⚠️  Ledger sync skipped: %v", err)
			res.LedgerError = err.Error()
		} else {
			res.LedgerSync = &sync
			s.publish(websocket.EventLedgerSynced, po, sync)
		}
		s.mergeLedger(ctx, po, res)
	}

	if s.deals != nil && s.deals.Configured() {
		deals, err := s.deals.SearchByPO(ctx, po)
		if err != nil {
			logger.Warnf("⚠️  Deal lookup failed: %v", err)
			res.DealsError = err.Error()
		} else {
			res.Deals = deals
		}
	}

	return res, nil
}

// mergeLedger attaches ledger-owned fields to each invoice, keyed by line item index
func (s *Service) mergeLedger(ctx context.Context, po string, res *SearchResult) {
	records, err := s.ledger.RecordsForPO(ctx, po)
	if err != nil {
		if res.LedgerError == "" {
			res.LedgerError = err.Error()
		}
		return
	}
	bySI := make(map[string]map[int]models.EditableFields)
	for _, r := range records {
		si := strings.TrimSpace(r.SIDocNumber)
		if bySI[si] == nil {
			bySI[si] = make(map[int]models.EditableFields)
		}
		bySI[si][r.LineItemIndex] = r.Editable()
	}
	for i := range res.Invoices {
		if fields, ok := bySI[strings.TrimSpace(res.Invoices[i].SIDocNumber)]; ok {
			res.Invoices[i].Ledger = fields
		}
	}
}

// UpdateLineItemRequest edits one ledger row
type UpdateLineItemRequest struct {
	PONumber      string            `json:"poNumber" validate:"required"`
	SIDocNumber   string            `json:"siDocNumber" validate:"required"`
	LineItemIndex int               `json:"lineItemIndex" validate:"min=0"`
	Updates       models.FieldEdits `json:"updates"`
}

// BulkUpdateRequest edits several rows of one invoice
type BulkUpdateRequest struct {
	PONumber    string                  `json:"poNumber" validate:"required"`
	SIDocNumber string                  `json:"siDocNumber" validate:"required"`
	Updates     []models.LineItemUpdate `json:"updates" validate:"required,min=1,dive"`
}

// UpdateResult reports what an update changed and which notifications went out
type UpdateResult struct {
	Updated             int                     `json:"updated"`
	Item                *models.LineItemRecord  `json:"item,omitempty"`
	NewlyFlagged        []models.LineItemRecord `json:"newlyFlagged,omitempty"`
	Completion          ledger.CompletionResult `json:"completion"`
	AlertSent           bool                    `json:"alertSent"`
	DigestSent          bool                    `json:"digestSent"`
	CompletionEmailSent bool                    `json:"completionEmailSent"`
	Notifications       []notify.Result         `json:"notifications"`
}

// UpdateLineItem applies one row edit, then sends an alert if the row newly entered a
// flagged status and a completion notice if the whole PO is now Complete.
func (s *Service) UpdateLineItem(ctx context.Context, req UpdateLineItemRequest) (*UpdateResult, error) {
	po, si := strings.TrimSpace(req.PONumber), strings.TrimSpace(req.SIDocNumber)

	before, err := s.ledger.RecordsForPO(ctx, po)
	if err != nil {
		return nil, err
	}
	target := ledger.NewKey(po, si, req.LineItemIndex)
	prev := ledger.StatusSnapshot(before)[target]

	applied, err := s.ledger.ApplyUpdates(ctx, po, si, []models.LineItemUpdate{{LineItemIndex: req.LineItemIndex, Fields: req.Updates}})
	if err != nil {
		return nil, err
	}
	if applied == 0 {
		return nil, fmt.Errorf("%w: PO=%s SIDoc=%s Index=%d", ErrLineItemNotFound, po, si, req.LineItemIndex)
	}

	after, err := s.ledger.RecordsForPO(ctx, po)
	if err != nil {
		return nil, err
	}
	res := &UpdateResult{Updated: applied, Completion: ledger.Completion(po, after)}
	for i := range after {
		if ledger.KeyOf(after[i]) == target {
			item := after[i]
			res.Item = &item
			break
		}
	}
	if res.Item == nil {
		// Row vanished between write and re-read; nothing to notify about.
		return res, nil
	}

	log.WithFields(log.Fields{"po": po, "siDoc": si, "index": req.LineItemIndex, "status": res.Item.Status()}).
		Info("➡️ Line item updated")

	intents := notify.SingleUpdateIntents(s.policy, prev, *res.Item, res.Completion)
	s.deliver(ctx, po, intents, res)
	s.publish(websocket.EventLineItemUpdated, po, res.Item)
	return res, nil
}

// UpdateLineItemsBulk applies several edits of one invoice with a single write and sends one
// digest covering every row that newly entered a flagged status.
func (s *Service) UpdateLineItemsBulk(ctx context.Context, req BulkUpdateRequest) (*UpdateResult, error) {
	po, si := strings.TrimSpace(req.PONumber), strings.TrimSpace(req.SIDocNumber)
	log.WithFields(log.Fields{"po": po, "siDoc": si, "updates": len(req.Updates)}).Info("🔵 Bulk update")

	before, err := s.ledger.RecordsForPO(ctx, po)
	if err != nil {
		return nil, err
	}
	snapshot := ledger.StatusSnapshot(before)

	applied, err := s.ledger.ApplyUpdates(ctx, po, si, req.Updates)
	if err != nil {
		return nil, err
	}

	after, err := s.ledger.RecordsForPO(ctx, po)
	if err != nil {
		return nil, err
	}
	res := &UpdateResult{
		Updated:      applied,
		NewlyFlagged: ledger.NewlyFlagged(snapshot, after, s.policy),
		Completion:   ledger.Completion(po, after),
	}

	intents := notify.BulkUpdateIntents(po, si, res.NewlyFlagged, after, res.Completion)
	s.deliver(ctx, po, intents, res)
	if applied > 0 {
		s.publish(websocket.EventLineItemUpdated, po, map[string]int{"updated": applied})
	}
	return res, nil
}

// deliver gates the completion notice through the guard, dispatches and records outcomes on res
func (s *Service) deliver(ctx context.Context, po string, intents []notify.Intent, res *UpdateResult) {
	if res.Completion.ShouldNotify() {
		if !s.guard.FirstCompletion(ctx, po) {
			intents = withoutKind(intents, notify.KindCompletion)
			log.WithField("po", po).Info("Completion already announced")
		}
	} else {
		s.guard.Reset(ctx, po)
	}

	res.Notifications = []notify.Result{}
	if len(intents) == 0 {
		return
	}
	res.Notifications = s.dispatcher.Dispatch(ctx, intents)
	for _, r := range res.Notifications {
		if !r.Delivered {
			continue
		}
		switch r.Kind {
		case notify.KindIncompleteAlert, notify.KindDefectiveAlert:
			res.AlertSent = true
		case notify.KindStatusDigest:
			res.DigestSent = true
		case notify.KindCompletion:
			res.CompletionEmailSent = true
			s.publish(websocket.EventPOCompleted, po, res.Completion)
		}
	}
}

// RefreshResult is the response of a forced vendor refresh
type RefreshResult struct {
	Invoices []models.Invoice    `json:"invoices"`
	Sync     ledger.UpsertResult `json:"sync"`
}

// RefreshPO re-fetches a PO and writes it to the ledger. Unlike Search, a ledger failure is returned.
func (s *Service) RefreshPO(ctx context.Context, po string) (*RefreshResult, error) {
	po = strings.TrimSpace(po)
	if po == "" {
		return nil, ErrQueryRequired
	}
	invoices, err := s.vendor.FetchByPO(ctx, po)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, ErrNotFoundUpstream
	}
	sync, err := s.ledger.Upsert(ctx, ledger.ProjectInvoices(invoices, po, s.now()))
	if err != nil {
		return nil, err
	}
	s.publish(websocket.EventLedgerSynced, po, sync)
	return &RefreshResult{Invoices: invoices, Sync: sync}, nil
}

// AllRecords returns every ledger row
func (s *Service) AllRecords(ctx context.Context) ([]models.LineItemRecord, error) {
	return s.ledger.Records(ctx)
}

// LineItems returns the ledger rows of one PO
func (s *Service) LineItems(ctx context.Context, po string) ([]models.LineItemRecord, error) {
	return s.ledger.RecordsForPO(ctx, po)
}

// Completion reports whether every row of po is Complete
func (s *Service) Completion(ctx context.Context, po string) (ledger.CompletionResult, error) {
	return s.ledger.CheckCompletion(ctx, po)
}

// TestEmail sends a sample incomplete alert through the normal delivery path
func (s *Service) TestEmail(ctx context.Context) []notify.Result {
	item := models.LineItemRecord{
		PONumber:         "TEST-PO-123",
		SIDocNumber:      "TEST-DOC-456",
		LineItemIndex:    1,
		ItemDescription:  "Test Item for Email Verification",
		QuantityShipped:  "10",
		Inspector:        "Test Inspector",
		InspectionStatus: string(models.InspectionIncomplete),
		InspectionNotes:  "This is a test email from the receiving service.",
	}
	return s.dispatcher.Dispatch(ctx, []notify.Intent{{
		Kind:        notify.KindIncompleteAlert,
		PONumber:    item.PONumber,
		SIDocNumber: item.SIDocNumber,
		Item:        &item,
	}})
}

func (s *Service) publish(eventType, po string, payload interface{}) {
	if s.events != nil {
		s.events.Broadcast(eventType, po, payload)
	}
}

func withoutKind(intents []notify.Intent, kind notify.Kind) []notify.Intent {
	out := intents[:0:0]
	for _, in := range intents {
		if in.Kind != kind {
			out = append(out, in)
		}
	}
	return out
}
