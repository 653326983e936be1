package notify

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/receivinggo/internal/ledger"
	"github.com/xelth-com/receivinggo/internal/models"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Message
	fail bool
}

func (f *fakeNotifier) Send(_ context.Context, msg Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.sent = append(f.sent, msg)
	return true
}

type fakeLog struct {
	mu      sync.Mutex
	entries []*models.NotificationLog
	err     error
}

func (f *fakeLog) Record(_ context.Context, e *models.NotificationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return f.err
}

func (f *fakeLog) Recent(context.Context, string, int) ([]models.NotificationLog, error) {
	return nil, nil
}

func row(idx int, status string) models.LineItemRecord {
	return models.LineItemRecord{PONumber: "ABC-1", SIDocNumber: "S1", LineItemIndex: idx, InspectionStatus: status, ItemDescription: "Item"}
}

func TestSingleUpdateIntents(t *testing.T) {
	notComplete := ledger.Completion("ABC-1", []models.LineItemRecord{row(1, "Incomplete")})

	got := SingleUpdateIntents(ledger.DefaultFlagPolicy, models.InspectionUnset, row(1, "Incomplete"), notComplete)
	require.Len(t, got, 1)
	assert.Equal(t, KindIncompleteAlert, got[0].Kind)
	assert.Equal(t, 1, got[0].Item.LineItemIndex)

	got = SingleUpdateIntents(ledger.DefaultFlagPolicy, models.InspectionIncomplete, row(1, "Defective"), notComplete)
	require.Len(t, got, 1)
	assert.Equal(t, KindDefectiveAlert, got[0].Kind)

	got = SingleUpdateIntents(ledger.DefaultFlagPolicy, models.InspectionDefective, row(1, "Defective"), notComplete)
	assert.Empty(t, got, "unchanged status must not re-alert")

	got = SingleUpdateIntents(ledger.DefaultFlagPolicy, models.InspectionUnset, row(1, "Missing"), notComplete)
	assert.Empty(t, got)

	complete := ledger.Completion("ABC-1", []models.LineItemRecord{row(1, "Complete"), row(2, "Complete")})
	got = SingleUpdateIntents(ledger.DefaultFlagPolicy, models.InspectionIncomplete, row(1, "Complete"), complete)
	require.Len(t, got, 1)
	assert.Equal(t, KindCompletion, got[0].Kind)
	assert.Equal(t, 2, got[0].LineItemCount)
}

func TestBulkUpdateIntents(t *testing.T) {
	all := []models.LineItemRecord{row(1, "Defective"), row(2, "Complete")}
	flagged := []models.LineItemRecord{row(1, "Defective")}

	got := BulkUpdateIntents("ABC-1", "S1", flagged, all, ledger.Completion("ABC-1", all))
	require.Len(t, got, 1)
	assert.Equal(t, KindStatusDigest, got[0].Kind)
	assert.Len(t, got[0].Flagged, 1)
	assert.Len(t, got[0].Items, 2)

	assert.Empty(t, BulkUpdateIntents("ABC-1", "S1", nil, all, ledger.Completion("ABC-1", all)))

	done := []models.LineItemRecord{row(1, "Complete"), row(2, "Complete")}
	got = BulkUpdateIntents("ABC-1", "S1", nil, done, ledger.Completion("ABC-1", done))
	require.Len(t, got, 1)
	assert.Equal(t, KindCompletion, got[0].Kind)

	got = BulkUpdateIntents("ZZZ", "S1", nil, nil, ledger.Completion("ZZZ", nil))
	assert.Empty(t, got, "a PO without rows never completes")
}

func TestBacklogResolvedIntent(t *testing.T) {
	in := BacklogResolvedIntent("KS26-1", []models.Invoice{
		{LineItems: make([]models.VendorLineItem, 2)},
		{LineItems: make([]models.VendorLineItem, 3)},
	})
	assert.Equal(t, KindBacklogResolved, in.Kind)
	assert.Equal(t, 2, in.InvoiceCount)
	assert.Equal(t, 5, in.LineItemCount)
}

func TestResolver(t *testing.T) {
	r := NewResolver(
		[]string{"sam@example.com", "tricia@example.com"},
		map[string][]string{
			"K":  {"k-team@example.com"},
			"ks": {"ks-team@example.com", "SAM@example.com"},
			"TR": {"travis@example.com"},
		},
	)

	assert.Equal(t, []string{"sam@example.com", "tricia@example.com", "ks-team@example.com"}, r.For("KS26-004-D"))
	assert.Equal(t, []string{"sam@example.com", "tricia@example.com", "k-team@example.com"}, r.For("KT26-007"))
	assert.Equal(t, []string{"sam@example.com", "tricia@example.com"}, r.For("ZZ-1"))
	assert.Equal(t, []string{"sam@example.com", "tricia@example.com"}, r.For("12345"))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "KS", Initials("KS26-004"))
	assert.Equal(t, "ABC", Initials(" abc-1"))
	assert.Equal(t, "JP", Initials("JP5010B"))
	assert.Equal(t, "", Initials("5010"))
	assert.Equal(t, "NOPO", Initials("nopo"))
}

func TestRender(t *testing.T) {
	item := row(2, "Defective")
	item.Inspector = "Jo"
	msg, err := Render(Intent{Kind: KindDefectiveAlert, PONumber: "ABC-1", SIDocNumber: "S1", Item: &item}, []string{"a@b.c"}, "")
	require.NoError(t, err)
	assert.Equal(t, "🚨 DEFECTIVE - PO: ABC-1 | Line Item #2", msg.Subject)
	assert.Contains(t, msg.Body, "Inspector: Jo")
	assert.Contains(t, msg.Body, "Tracking Number: Not set")

	msg, err = Render(Intent{Kind: KindBacklogResolved, PONumber: "KS 1", InvoiceCount: 1, LineItemCount: 4}, nil, "https://portal.example.com")
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "https://portal.example.com?po=KS+1")
	assert.Contains(t, msg.Body, "Total line items: 4")

	_, err = Render(Intent{Kind: KindIncompleteAlert, PONumber: "ABC-1"}, nil, "")
	assert.Error(t, err)
	_, err = Render(Intent{Kind: "unknown"}, nil, "")
	assert.Error(t, err)
}

func TestDispatch_SendsInOrderAndLogs(t *testing.T) {
	n := &fakeNotifier{}
	logs := &fakeLog{err: errors.New("db down")}
	d := NewDispatcher(n, NewResolver([]string{"ops@example.com"}, nil), "").WithLog(logs)

	all := []models.LineItemRecord{row(1, "Complete")}
	results := d.Dispatch(context.Background(), []Intent{
		{Kind: KindStatusDigest, PONumber: "ABC-1", Flagged: all, Items: all},
		CompletionIntent(ledger.Completion("ABC-1", all)),
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Delivered)
	assert.True(t, results[1].Delivered)
	require.Len(t, n.sent, 2)
	assert.True(t, strings.HasPrefix(n.sent[1].Subject, "✅ ORDER COMPLETE"))
	assert.Equal(t, []string{"ops@example.com"}, n.sent[0].To)
	require.Len(t, logs.entries, 2)
	assert.Equal(t, string(KindCompletion), logs.entries[1].Kind)
}

func TestDispatch_FailuresAreReportedNotRaised(t *testing.T) {
	n := &fakeNotifier{fail: true}
	logs := &fakeLog{}
	d := NewDispatcher(n, NewResolver([]string{"ops@example.com"}, nil), "").WithLog(logs)

	res := d.Dispatch(context.Background(), []Intent{BacklogResolvedIntent("X", nil)})
	require.Len(t, res, 1)
	assert.False(t, res[0].Delivered)
	assert.Equal(t, "delivery failed", res[0].Error)

	d = NewDispatcher(&fakeNotifier{}, NewResolver(nil, nil), "").WithLog(logs)
	res = d.Dispatch(context.Background(), []Intent{BacklogResolvedIntent("X", nil)})
	assert.False(t, res[0].Delivered)
	assert.Equal(t, "no recipients configured", res[0].Error)

	require.Len(t, logs.entries, 2)
	assert.Equal(t, "delivery failed", logs.entries[0].Error)
	assert.Equal(t, "no recipients configured", logs.entries[1].Error)
	assert.False(t, logs.entries[1].Delivered)
}

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisGuard(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	g := NewRedisGuard(client, time.Minute)
	client.Del(ctx, completionKey("GUARD-1"))

	assert.True(t, g.FirstCompletion(ctx, "GUARD-1"))
	assert.False(t, g.FirstCompletion(ctx, "GUARD-1"))
	g.Reset(ctx, "GUARD-1")
	assert.True(t, g.FirstCompletion(ctx, "GUARD-1"))
	client.Del(ctx, completionKey("GUARD-1"))
}
