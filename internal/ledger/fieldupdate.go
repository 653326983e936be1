package ledger

import (
	"time"

	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/tabular"
)

// FlagPolicy is the set of inspection statuses that raise an alert when a row enters them
type FlagPolicy map[models.InspectionStatus]bool

// DefaultFlagPolicy flags rows that became Incomplete or Defective
var DefaultFlagPolicy = FlagPolicy{
	models.InspectionIncomplete: true,
	models.InspectionDefective:  true,
}

// Flags reports whether s is in the policy
func (p FlagPolicy) Flags(s models.InspectionStatus) bool {
	return p[s]
}

// StatusSnapshot captures trimmed inspection statuses keyed by canonical key
func StatusSnapshot(records []models.LineItemRecord) map[Key]models.InspectionStatus {
	snap := make(map[Key]models.InspectionStatus, len(records))
	for _, r := range records {
		snap[KeyOf(r)] = r.Status()
	}
	return snap
}

// NewlyFlagged returns the rows of after whose status is flagged by the policy and
// differs from the status in before. Rows missing from before count as Unset.
func NewlyFlagged(before map[Key]models.InspectionStatus, after []models.LineItemRecord, policy FlagPolicy) []models.LineItemRecord {
	var flagged []models.LineItemRecord
	for _, r := range after {
		curr := r.Status()
		if !policy.Flags(curr) {
			continue
		}
		if prev := before[KeyOf(r)]; prev != curr {
			flagged = append(flagged, r)
		}
	}
	return flagged
}

// PlanFieldUpdates resolves updates for one invoice against the stored rows.
// Entries with no matching row, or with no fields set, are skipped and not counted.
// Several entries for the same row merge in order into a single write.
func PlanFieldUpdates(stored [][]string, po, siDoc string, updates []models.LineItemUpdate, now time.Time) ([]tabular.RowWrite, int) {
	rows := make(map[Key]models.LineItemRecord)
	for i := 1; i < len(stored); i++ {
		if tabular.IsBlank(stored[i]) {
			continue
		}
		rec := RecordFromRow(stored[i], i+1)
		rows[KeyOf(rec)] = rec
	}

	stamp := Timestamp(now)
	pending := make(map[int]int) // row number -> index in writes
	var (
		writes  []tabular.RowWrite
		applied int
	)
	for _, u := range updates {
		if u.Fields.IsEmpty() {
			continue
		}
		key := NewKey(po, siDoc, u.LineItemIndex)
		rec, ok := rows[key]
		if !ok {
			continue
		}
		rec = u.Fields.ApplyTo(rec)
		rec.LastUpdated = stamp
		rows[key] = rec
		applied++

		write := tabular.RowWrite{Row: rec.RowNumber, Values: RowFromRecord(rec)}
		if idx, seen := pending[rec.RowNumber]; seen {
			writes[idx] = write
			continue
		}
		pending[rec.RowNumber] = len(writes)
		writes = append(writes, write)
	}
	return writes, applied
}
