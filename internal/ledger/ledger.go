// Package ledger reconciles vendor invoice lines with the inspection ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/tabular"
)

// ErrLedgerUnavailable wraps every failure to read or write the backing table
var ErrLedgerUnavailable = errors.New("ledger unavailable")

// Ledger is the inspection ledger stored in a table
type Ledger struct {
	table tabular.Table
	now   func() time.Time
}

// New creates a ledger over table
func New(table tabular.Table) *Ledger {
	return &Ledger{table: table, now: time.Now}
}

// WithClock overrides the clock used for Last Updated
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// UpsertResult reports what an upsert changed
type UpsertResult struct {
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
}

// Records returns every data row
func (l *Ledger) Records(ctx context.Context) ([]models.LineItemRecord, error) {
	rows, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	return recordsOf(rows), nil
}

// RecordsForPO returns the rows of one PO
func (l *Ledger) RecordsForPO(ctx context.Context, po string) ([]models.LineItemRecord, error) {
	all, err := l.Records(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.LineItemRecord
	for _, r := range all {
		if SamePO(r.PONumber, po) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Upsert writes incoming records, preserving editable fields of rows that already exist.
// Header repair, updates and inserts are committed in a single batch.
func (l *Ledger) Upsert(ctx context.Context, incoming []models.LineItemRecord) (UpsertResult, error) {
	rows, err := l.read(ctx)
	if err != nil {
		return UpsertResult{}, err
	}

	plan := PlanUpsert(incoming, rows, l.now())

	var writes []tabular.RowWrite
	if !headerIsCurrent(rows) {
		writes = append(writes, tabular.RowWrite{Row: 1, Values: Header})
	}
	writes = append(writes, plan.ToUpdate...)

	if len(writes) > 0 || len(plan.ToInsert) > 0 {
		// Inserts are appended by the table at commit time, never addressed by row number
		if err := l.table.BatchWrite(ctx, writes, plan.ToInsert); err != nil {
			return UpsertResult{}, fmt.Errorf("%w: failed to write rows: %v", ErrLedgerUnavailable, err)
		}
	}

	log.WithFields(log.Fields{"updated": plan.UpdatedCount, "inserted": plan.InsertedCount}).
		Info("✅ Ledger: upsert committed")
	return UpsertResult{Updated: plan.UpdatedCount, Inserted: plan.InsertedCount}, nil
}

// ApplyUpdates sets editable fields on rows of one invoice with one read and one write.
// It returns how many update entries matched a row.
func (l *Ledger) ApplyUpdates(ctx context.Context, po, siDoc string, updates []models.LineItemUpdate) (int, error) {
	rows, err := l.read(ctx)
	if err != nil {
		return 0, err
	}

	writes, applied := PlanFieldUpdates(rows, po, siDoc, updates, l.now())
	if len(writes) == 0 {
		return 0, nil
	}
	if err := l.table.BatchWrite(ctx, writes, nil); err != nil {
		return 0, fmt.Errorf("%w: failed to write updates: %v", ErrLedgerUnavailable, err)
	}

	log.WithFields(log.Fields{"po": po, "siDoc": siDoc, "applied": applied}).Info("✏️  Ledger: field updates applied")
	return applied, nil
}

// CheckCompletion reads the PO and reports whether every row is Complete
func (l *Ledger) CheckCompletion(ctx context.Context, po string) (CompletionResult, error) {
	records, err := l.RecordsForPO(ctx, po)
	if err != nil {
		return CompletionResult{PONumber: po}, err
	}
	return Completion(po, records), nil
}

func (l *Ledger) read(ctx context.Context) ([][]string, error) {
	rows, err := l.table.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %v", ErrLedgerUnavailable, err)
	}
	return rows, nil
}

func recordsOf(rows [][]string) []models.LineItemRecord {
	var out []models.LineItemRecord
	for i := 1; i < len(rows); i++ {
		if tabular.IsBlank(rows[i]) {
			continue
		}
		out = append(out, RecordFromRow(rows[i], i+1))
	}
	return out
}
