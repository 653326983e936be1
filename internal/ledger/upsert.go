package ledger

import (
	"time"

	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/tabular"
)

// UpsertPlan is the outcome of merging incoming records with the stored ledger
type UpsertPlan struct {
	ToUpdate      []tabular.RowWrite
	ToInsert      [][]string
	UpdatedCount  int
	InsertedCount int
}

// PlanUpsert merges incoming records into the stored rows (header at index 0).
// Matched rows keep their editable fields; unmatched rows are inserted with blank ones.
// Both groups get a fresh Last Updated. Duplicate keys in incoming collapse, last wins.
func PlanUpsert(incoming []models.LineItemRecord, stored [][]string, now time.Time) UpsertPlan {
	existing := make(map[Key]models.LineItemRecord)
	for i := 1; i < len(stored); i++ {
		if tabular.IsBlank(stored[i]) {
			continue
		}
		rec := RecordFromRow(stored[i], i+1)
		existing[KeyOf(rec)] = rec
	}

	stamp := Timestamp(now)
	updates := make(map[int]int) // row number -> index in plan.ToUpdate
	inserts := make(map[Key]int) // key -> index in plan.ToInsert

	var plan UpsertPlan
	for _, rec := range incoming {
		key := KeyOf(rec)
		rec.PONumber = key.PONumber
		rec.SIDocNumber = key.SIDocNumber
		rec.LastUpdated = stamp

		if prev, ok := existing[key]; ok {
			merged := rec.WithEditable(prev.Editable())
			write := tabular.RowWrite{Row: prev.RowNumber, Values: RowFromRecord(merged)}
			if idx, seen := updates[prev.RowNumber]; seen {
				plan.ToUpdate[idx] = write
				continue
			}
			updates[prev.RowNumber] = len(plan.ToUpdate)
			plan.ToUpdate = append(plan.ToUpdate, write)
			continue
		}

		row := RowFromRecord(rec.WithEditable(models.EditableFields{}))
		if idx, seen := inserts[key]; seen {
			plan.ToInsert[idx] = row
			continue
		}
		inserts[key] = len(plan.ToInsert)
		plan.ToInsert = append(plan.ToInsert, row)
	}

	plan.UpdatedCount = len(plan.ToUpdate)
	plan.InsertedCount = len(plan.ToInsert)
	return plan
}
