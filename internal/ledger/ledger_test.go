package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/tabular"
)

var t0 = time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func twoLineInvoice() models.Invoice {
	return models.Invoice{
		PONumber:      "ABC-1",
		SIDocNumber:   "S1",
		Supplier:      "Acme",
		DocumentTotal: decimal.RequireFromString("30"),
		Status:        models.InvoiceStatusActive,
		LineItems: []models.VendorLineItem{
			{Description: "Bat", QuantityShipped: dec("2"), NetPrice: dec("5")},
			{SupplierItemNumber: "GLV-9", QuantityOrdered: dec("1"), ListPrice: dec("20"), Extension: dec("20")},
		},
	}
}

func newTestLedger(rows ...[]string) (*Ledger, *tabular.MemoryTable) {
	tbl := tabular.NewMemoryTable(rows...)
	clock := t0
	l := New(tbl).WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	return l, tbl
}

func str(s string) *string { return &s }

func TestKeyCanonicalization(t *testing.T) {
	rec := models.LineItemRecord{PONumber: " ABC-1 ", SIDocNumber: "S1 ", LineItemIndex: 1}
	assert.Equal(t, "ABC-1|S1|1", KeyOf(rec).String())

	stored := RecordFromRow([]string{"ABC-1", " S1", "", "", "", "", "", "1.0"}, 2)
	assert.Equal(t, KeyOf(rec), KeyOf(stored))

	assert.Equal(t, 3, ParseLineIndex(" 3 "))
	assert.Equal(t, InvalidLineIndex, ParseLineIndex("x"))
	assert.Equal(t, InvalidLineIndex, ParseLineIndex("1.5"))
	assert.Equal(t, InvalidLineIndex, ParseLineIndex(""))
}

func TestProjectInvoice_LinesAndDefaults(t *testing.T) {
	recs := ProjectInvoice(twoLineInvoice(), "", t0)
	require.Len(t, recs, 2)

	assert.Equal(t, 1, recs[0].LineItemIndex)
	assert.Equal(t, "Bat", recs[0].ItemDescription)
	assert.Equal(t, "2", recs[0].QuantityShipped)
	assert.Equal(t, "5", recs[0].UnitPrice)
	assert.Equal(t, "10", recs[0].LineItemTotal)
	assert.Equal(t, "30", recs[0].InvoiceTotal)
	assert.Equal(t, "Acme", recs[0].SupplierName)

	assert.Equal(t, 2, recs[1].LineItemIndex)
	assert.Equal(t, "GLV-9", recs[1].ItemDescription)
	assert.Equal(t, "1", recs[1].QuantityShipped)
	assert.Equal(t, "20", recs[1].UnitPrice)
	assert.Equal(t, "20", recs[1].LineItemTotal)

	for _, r := range recs {
		assert.Equal(t, models.EditableFields{}, r.Editable())
	}
}

func TestProjectInvoice_Placeholder(t *testing.T) {
	inv := models.Invoice{SIDocNumber: "S9", Status: models.InvoiceStatusHistorical}
	recs := ProjectInvoice(inv, "PO-7", t0)

	require.Len(t, recs, 1)
	assert.Equal(t, 0, recs[0].LineItemIndex)
	assert.Equal(t, models.PlaceholderDescription, recs[0].ItemDescription)
	assert.Equal(t, "PO-7", recs[0].PONumber)
	assert.Equal(t, models.InvoiceStatusHistorical, recs[0].ItemStatus)
	assert.Empty(t, recs[0].QuantityShipped)
}

func TestProjectInvoice_UnnamedItemWithoutPrice(t *testing.T) {
	inv := models.Invoice{PONumber: "P1", SIDocNumber: "S1", LineItems: []models.VendorLineItem{{}}}
	recs := ProjectInvoice(inv, "", t0)

	require.Len(t, recs, 1)
	assert.Equal(t, "Unnamed Item", recs[0].ItemDescription)
	assert.Equal(t, "0", recs[0].UnitPrice)
	assert.Equal(t, "0", recs[0].LineItemTotal)
	assert.Equal(t, models.InvoiceStatusActive, recs[0].InvoiceStatus)
}

func TestUpsert_EmptyLedgerWritesHeaderAndInserts(t *testing.T) {
	ctx := context.Background()
	l, tbl := newTestLedger()

	res, err := l.Upsert(ctx, ProjectInvoice(twoLineInvoice(), "", t0))
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{Inserted: 2}, res)

	rows, _ := tbl.ReadRows(ctx)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
}

func TestUpsert_IdempotentAndPreservesEditable(t *testing.T) {
	ctx := context.Background()
	l, tbl := newTestLedger()

	_, err := l.Upsert(ctx, ProjectInvoice(twoLineInvoice(), "", t0))
	require.NoError(t, err)

	applied, err := l.ApplyUpdates(ctx, "ABC-1", "S1", []models.LineItemUpdate{
		{LineItemIndex: 1, Fields: models.FieldEdits{InspectionStatus: str("Defective"), Inspector: str("Jo"), ShelfLocation: str("B4")}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	res, err := l.Upsert(ctx, ProjectInvoice(twoLineInvoice(), "", t0))
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{Updated: 2}, res)
	assert.Equal(t, 3, tbl.Len())

	recs, err := l.RecordsForPO(ctx, "ABC-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Defective", recs[0].InspectionStatus)
	assert.Equal(t, "Jo", recs[0].Inspector)
	assert.Equal(t, "B4", recs[0].ShelfLocation)
	assert.Equal(t, "", recs[1].InspectionStatus)
}

func TestUpsert_VendorChangesOverwriteDescriptiveOnly(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	_, err := l.Upsert(ctx, ProjectInvoice(twoLineInvoice(), "", t0))
	require.NoError(t, err)
	_, err = l.ApplyUpdates(ctx, "ABC-1", "S1", []models.LineItemUpdate{
		{LineItemIndex: 2, Fields: models.FieldEdits{InspectionNotes: str("box dented")}},
	})
	require.NoError(t, err)

	inv := twoLineInvoice()
	inv.LineItems[1].Description = "Glove (revised)"
	_, err = l.Upsert(ctx, ProjectInvoice(inv, "", t0))
	require.NoError(t, err)

	recs, _ := l.RecordsForPO(ctx, "ABC-1")
	assert.Equal(t, "Glove (revised)", recs[1].ItemDescription)
	assert.Equal(t, "box dented", recs[1].InspectionNotes)
}

func TestUpsert_DuplicateIncomingKeysCollapse(t *testing.T) {
	ctx := context.Background()
	l, tbl := newTestLedger()

	recs := ProjectInvoice(twoLineInvoice(), "", t0)
	dup := recs[0]
	dup.ItemDescription = "Bat v2"
	res, err := l.Upsert(ctx, append(recs, dup))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 3, tbl.Len())

	stored, _ := l.RecordsForPO(ctx, "ABC-1")
	assert.Equal(t, "Bat v2", stored[0].ItemDescription)
}

func TestUpsert_StoreFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	l, tbl := newTestLedger()
	_, err := l.Upsert(ctx, ProjectInvoice(twoLineInvoice(), "", t0))
	require.NoError(t, err)

	inv := twoLineInvoice()
	inv.LineItems = append(inv.LineItems, models.VendorLineItem{Description: "Ball"})
	tbl.FailNext = errors.New("quota exceeded")

	_, err = l.Upsert(ctx, ProjectInvoice(inv, "", t0))
	require.ErrorIs(t, err, ErrLedgerUnavailable)
	assert.Equal(t, 3, tbl.Len())
}

func TestApplyUpdates_MissingKeyIsSkipped(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()
	_, err := l.Upsert(ctx, ProjectInvoice(twoLineInvoice(), "", t0))
	require.NoError(t, err)

	applied, err := l.ApplyUpdates(ctx, "ABC-1", "S1", []models.LineItemUpdate{
		{LineItemIndex: 1, Fields: models.FieldEdits{InspectionStatus: str("Complete")}},
		{LineItemIndex: 9, Fields: models.FieldEdits{InspectionStatus: str("Complete")}},
		{LineItemIndex: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	applied, err = l.ApplyUpdates(ctx, "NOPE", "S1", []models.LineItemUpdate{
		{LineItemIndex: 1, Fields: models.FieldEdits{InspectionStatus: str("Complete")}},
	})
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestNewlyFlagged(t *testing.T) {
	a := models.LineItemRecord{PONumber: "P", SIDocNumber: "S", LineItemIndex: 1, InspectionStatus: "Defective"}
	b := models.LineItemRecord{PONumber: "P", SIDocNumber: "S", LineItemIndex: 2, InspectionStatus: "Complete"}
	c := models.LineItemRecord{PONumber: "P", SIDocNumber: "S", LineItemIndex: 3, InspectionStatus: " Incomplete "}
	d := models.LineItemRecord{PONumber: "P", SIDocNumber: "S", LineItemIndex: 4, InspectionStatus: "Incomplete"}

	before := map[Key]models.InspectionStatus{
		KeyOf(a): models.InspectionIncomplete,
		KeyOf(b): models.InspectionUnset,
		KeyOf(c): models.InspectionIncomplete,
	}

	got := NewlyFlagged(before, []models.LineItemRecord{a, b, c, d}, DefaultFlagPolicy)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].LineItemIndex)
	assert.Equal(t, 4, got[1].LineItemIndex)
}

func TestCompletion(t *testing.T) {
	complete := models.LineItemRecord{PONumber: "P", InspectionStatus: "Complete"}
	padded := models.LineItemRecord{PONumber: "P", InspectionStatus: "Complete "}
	other := models.LineItemRecord{PONumber: "Q", InspectionStatus: "Defective"}

	res := Completion("P", []models.LineItemRecord{complete, complete, other})
	assert.True(t, res.AllComplete)
	assert.True(t, res.ShouldNotify())
	assert.Len(t, res.LineItems, 2)

	assert.False(t, Completion("P", []models.LineItemRecord{complete, padded}).AllComplete)

	empty := Completion("Z", []models.LineItemRecord{complete})
	assert.False(t, empty.AllComplete)
	assert.False(t, empty.ShouldNotify())
}

func TestScenario_TwoLinePOToCompletion(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger()

	res, err := l.Upsert(ctx, ProjectInvoice(twoLineInvoice(), "", t0))
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{Inserted: 2}, res)

	before, _ := l.RecordsForPO(ctx, "ABC-1")
	_, err = l.ApplyUpdates(ctx, "ABC-1", "S1", []models.LineItemUpdate{
		{LineItemIndex: 1, Fields: models.FieldEdits{InspectionStatus: str("Incomplete")}},
	})
	require.NoError(t, err)
	after, _ := l.RecordsForPO(ctx, "ABC-1")
	flagged := NewlyFlagged(StatusSnapshot(before), after, DefaultFlagPolicy)
	require.Len(t, flagged, 1)
	assert.Equal(t, 1, flagged[0].LineItemIndex)

	before = after
	_, err = l.ApplyUpdates(ctx, "ABC-1", "S1", []models.LineItemUpdate{
		{LineItemIndex: 1, Fields: models.FieldEdits{InspectionStatus: str("Defective")}},
		{LineItemIndex: 2, Fields: models.FieldEdits{InspectionStatus: str("Complete")}},
	})
	require.NoError(t, err)
	after, _ = l.RecordsForPO(ctx, "ABC-1")
	flagged = NewlyFlagged(StatusSnapshot(before), after, DefaultFlagPolicy)
	require.Len(t, flagged, 1)
	assert.Equal(t, "Defective", flagged[0].InspectionStatus)
	assert.False(t, Completion("ABC-1", after).AllComplete)

	_, err = l.ApplyUpdates(ctx, "ABC-1", "S1", []models.LineItemUpdate{
		{LineItemIndex: 1, Fields: models.FieldEdits{InspectionStatus: str("Complete")}},
	})
	require.NoError(t, err)
	done, err := l.CheckCompletion(ctx, "ABC-1")
	require.NoError(t, err)
	assert.True(t, done.ShouldNotify())

	res, err = l.Upsert(ctx, ProjectInvoice(twoLineInvoice(), "", t0))
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{Updated: 2}, res)
	done, _ = l.CheckCompletion(ctx, "ABC-1")
	assert.True(t, done.AllComplete)
}

// lockstepTable holds every reader until all of them have read, so they share one snapshot
type lockstepTable struct {
	*tabular.MemoryTable
	readers sync.WaitGroup
}

func (t *lockstepTable) ReadRows(ctx context.Context) ([][]string, error) {
	rows, err := t.MemoryTable.ReadRows(ctx)
	t.readers.Done()
	t.readers.Wait()
	return rows, err
}

func TestUpsert_ConcurrentPOsKeepEachOthersRows(t *testing.T) {
	ctx := context.Background()
	tbl := &lockstepTable{MemoryTable: tabular.NewMemoryTable(Header)}
	tbl.readers.Add(2)
	l := New(tbl)

	first, second := twoLineInvoice(), twoLineInvoice()
	first.PONumber, first.SIDocNumber = "AAA-1", "A1"
	second.PONumber, second.SIDocNumber = "BBB-2", "B1"

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, inv := range []models.Invoice{first, second} {
		wg.Add(1)
		go func(i int, inv models.Invoice) {
			defer wg.Done()
			_, errs[i] = l.Upsert(ctx, ProjectInvoice(inv, "", time.Now()))
		}(i, inv)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	rows, err := tbl.MemoryTable.ReadRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	perPO := map[string]int{}
	for _, r := range recordsOf(rows) {
		perPO[r.PONumber]++
	}
	assert.Equal(t, map[string]int{"AAA-1": 2, "BBB-2": 2}, perPO)
}
