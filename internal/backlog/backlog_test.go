package backlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/notify"
	"github.com/xelth-com/receivinggo/internal/services/mailer"
	"github.com/xelth-com/receivinggo/internal/services/sportsinc"
	"github.com/xelth-com/receivinggo/internal/tabular"
)

type fakeVendor struct {
	invoices map[string][]models.Invoice
	errs     map[string]error
	calls    []string
}

func (f *fakeVendor) FetchByPO(_ context.Context, po string) ([]models.Invoice, error) {
	f.calls = append(f.calls, po)
	if err := f.errs[po]; err != nil {
		return nil, err
	}
	return f.invoices[po], nil
}

type fakeDispatcher struct {
	intents []notify.Intent
	fail    bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, intents []notify.Intent) []notify.Result {
	f.intents = append(f.intents, intents...)
	out := make([]notify.Result, len(intents))
	for i, in := range intents {
		out[i] = notify.Result{Kind: in.Kind, PONumber: in.PONumber, Delivered: !f.fail}
	}
	return out
}

type fakeHistory struct {
	started  []*models.BacklogSweepRun
	finished []models.BacklogSweepRun
}

func (f *fakeHistory) Start(_ context.Context, run *models.BacklogSweepRun) error {
	f.started = append(f.started, run)
	return nil
}

func (f *fakeHistory) Finish(_ context.Context, run *models.BacklogSweepRun) error {
	f.finished = append(f.finished, *run)
	return nil
}

func (f *fakeHistory) Recent(context.Context, int) ([]models.BacklogSweepRun, error) {
	return f.finished, nil
}

type fakeLocker struct{ err error }

func (f fakeLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	return func() {}, nil
}

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newStore(table *tabular.MemoryTable) *Store {
	s := NewStore(table)
	s.now = func() time.Time { return fixedNow }
	return s
}

func newSweeper(store *Store, vendor VendorClient, d Dispatcher) *Sweeper {
	s := NewSweeper(store, vendor, d, time.Second)
	s.now = func() time.Time { return fixedNow }
	s.sleep = func(context.Context, time.Duration) error { return nil }
	return s
}

func seeded(t *testing.T, pos ...string) (*tabular.MemoryTable, *Store) {
	t.Helper()
	table := tabular.NewMemoryTable()
	store := newStore(table)
	for _, po := range pos {
		_, err := store.Add(context.Background(), po)
		require.NoError(t, err)
	}
	return table, store
}

func TestStore_AddWritesHeaderAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	table, store := seeded(t, " PO-1 ")

	rows, err := table.ReadRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"PO-1", "2024-03-01T09:00:00Z", "2024-03-01T09:00:00Z", "Pending"}, rows[1])

	_, err = store.Add(ctx, "PO-1")
	assert.ErrorIs(t, err, ErrAlreadyInBacklog)

	_, err = store.Add(ctx, "  ")
	assert.Error(t, err)
}

func TestStore_RemoveAndTouch(t *testing.T) {
	ctx := context.Background()
	_, store := seeded(t, "PO-1", "PO-2", "PO-3")

	require.NoError(t, store.Remove(ctx, "PO-2"))
	assert.ErrorIs(t, store.Remove(ctx, "PO-2"), ErrNotInBacklog)

	later := fixedNow.Add(24 * time.Hour)
	require.NoError(t, store.Touch(ctx, "PO-3", later))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "PO-1", entries[0].PONumber)
	assert.Equal(t, "PO-3", entries[1].PONumber)
	assert.True(t, entries[1].LastChecked.Equal(later))
	assert.True(t, entries[1].DateAdded.Equal(fixedNow))
	assert.Equal(t, 3, entries[1].RowNumber)
}

func TestStore_ReadsLegacyDates(t *testing.T) {
	table := tabular.NewMemoryTable(Header, []string{"OLD-1", "3/15/2024", "3/16/2024", ""})
	entries, err := NewStore(table).List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), entries[0].DateAdded)
	assert.Equal(t, models.BacklogStatusPending, entries[0].Status)
}

func TestSweep_ResolvesFoundAndTouchesMissing(t *testing.T) {
	ctx := context.Background()
	_, store := seeded(t, "PO-1", "PO-2")
	vendor := &fakeVendor{invoices: map[string][]models.Invoice{
		"PO-1": {{PONumber: "PO-1", LineItems: []models.VendorLineItem{{Description: "Ball"}, {Description: "Bat"}}}},
	}}
	dispatcher := &fakeDispatcher{}
	history := &fakeHistory{}

	result, err := newSweeper(store, vendor, dispatcher).WithHistory(history).Sweep(ctx, models.SweepTriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 1, result.NotFound)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, []string{"PO-1"}, result.Resolved)

	require.Len(t, dispatcher.intents, 1)
	assert.Equal(t, notify.KindBacklogResolved, dispatcher.intents[0].Kind)
	assert.Equal(t, 1, dispatcher.intents[0].InvoiceCount)
	assert.Equal(t, 2, dispatcher.intents[0].LineItemCount)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PO-2", entries[0].PONumber)

	require.Len(t, history.finished, 1)
	assert.Equal(t, result.RunID, history.finished[0].ID)
	assert.Equal(t, models.SweepTriggerManual, history.finished[0].Trigger)
	assert.Equal(t, 1, history.finished[0].Found)
}

func TestSweep_UndeliveredNotificationStillRemovesEntry(t *testing.T) {
	ctx := context.Background()
	_, store := seeded(t, "PO-1")
	vendor := &fakeVendor{invoices: map[string][]models.Invoice{"PO-1": {{PONumber: "PO-1"}}}}
	sweeper := newSweeper(store, vendor, &fakeDispatcher{fail: true})

	result, err := sweeper.Sweep(ctx, models.SweepTriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, []string{"PO-1"}, result.Resolved)
	assert.Equal(t, []string{"PO-1"}, result.Undelivered)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	result, err = sweeper.Sweep(ctx, models.SweepTriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Checked)
}

func TestSweep_UnconfiguredMailerStillResolves(t *testing.T) {
	ctx := context.Background()
	_, store := seeded(t, "PO-1")
	vendor := &fakeVendor{invoices: map[string][]models.Invoice{"PO-1": {{PONumber: "PO-1"}}}}
	dispatcher := notify.NewDispatcher(mailer.New("", "", "", "", "Receiving"), notify.NewResolver([]string{"qa@example.com"}, nil), "")

	result, err := newSweeper(store, vendor, dispatcher).Sweep(ctx, models.SweepTriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Found)
	assert.Equal(t, []string{"PO-1"}, result.Undelivered)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSweep_CountsErrorsAndContinues(t *testing.T) {
	ctx := context.Background()
	_, store := seeded(t, "PO-1", "PO-2")
	vendor := &fakeVendor{errs: map[string]error{"PO-1": sportsinc.ErrTransport}}

	result, err := newSweeper(store, vendor, &fakeDispatcher{}).Sweep(ctx, models.SweepTriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 1, result.NotFound)
	assert.Equal(t, []string{"PO-1", "PO-2"}, vendor.calls)
}

func TestSweep_StopsOnMissingCredentials(t *testing.T) {
	ctx := context.Background()
	_, store := seeded(t, "PO-1", "PO-2")
	vendor := &fakeVendor{errs: map[string]error{"PO-1": sportsinc.ErrMissingCredentials}}

	result, err := newSweeper(store, vendor, &fakeDispatcher{}).Sweep(ctx, models.SweepTriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, []string{"PO-1"}, vendor.calls)
}

func TestSweep_RespectsLocks(t *testing.T) {
	ctx := context.Background()
	_, store := seeded(t, "PO-1")

	s := newSweeper(store, &fakeVendor{}, &fakeDispatcher{}).WithLocker(fakeLocker{err: ErrSweepInProgress})
	_, err := s.Sweep(ctx, models.SweepTriggerManual)
	assert.ErrorIs(t, err, ErrSweepInProgress)

	s = newSweeper(store, &fakeVendor{}, &fakeDispatcher{})
	s.running.Lock()
	_, err = s.Sweep(ctx, models.SweepTriggerManual)
	s.running.Unlock()
	assert.ErrorIs(t, err, ErrSweepInProgress)
}

func TestSweep_StoreFailureCountsAsError(t *testing.T) {
	table, store := seeded(t, "PO-1")
	table.FailNext = errors.New("sheet offline")

	result, err := newSweeper(store, &fakeVendor{}, &fakeDispatcher{}).Sweep(context.Background(), models.SweepTriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 0, result.NotFound)
}

func TestScheduler_NextRun(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	s := NewScheduler(nil, 9, 0, loc)

	before := time.Date(2024, 3, 1, 8, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, loc), s.NextRun(before))

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 2, 9, 0, 0, 0, loc), s.NextRun(at))

	// 17:30 UTC is 09:30 Pacific
	utc := time.Date(2024, 3, 1, 17, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 2, 9, 0, 0, 0, loc), s.NextRun(utc))
}
