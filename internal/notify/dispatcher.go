package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/models"
	"gorm.io/datatypes"
)

// Result is the delivery outcome of one intent
type Result struct {
	Kind       Kind     `json:"kind"`
	PONumber   string   `json:"poNumber"`
	Recipients []string `json:"recipients"`
	Delivered  bool     `json:"delivered"`
	Error      string   `json:"error,omitempty"`
}

// Dispatcher renders intents, resolves recipients and sends them in order
type Dispatcher struct {
	notifier  Notifier
	resolver  *Resolver
	portalURL string
	logs      LogStore
	now       func() time.Time
}

// NewDispatcher creates a dispatcher
func NewDispatcher(notifier Notifier, resolver *Resolver, portalURL string) *Dispatcher {
	return &Dispatcher{notifier: notifier, resolver: resolver, portalURL: portalURL, now: time.Now}
}

// WithLog records every dispatch in store
func (d *Dispatcher) WithLog(store LogStore) *Dispatcher {
	d.logs = store
	return d
}

// Dispatch sends every intent and waits for each delivery to finish
func (d *Dispatcher) Dispatch(ctx context.Context, intents []Intent) []Result {
	results := make([]Result, 0, len(intents))
	for _, in := range intents {
		res := d.dispatchOne(ctx, in)
		results = append(results, res)
		d.record(ctx, in, res)
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, in Intent) Result {
	res := Result{Kind: in.Kind, PONumber: in.PONumber, Recipients: d.resolver.For(in.PONumber)}
	if len(res.Recipients) == 0 {
		res.Error = "no recipients configured"
		log.Printf("⚠️  Notify: %s for PO %s skipped: %s", in.Kind, in.PONumber, res.Error)
		return res
	}

	msg, err := Render(in, res.Recipients, d.portalURL)
	if err != nil {
		res.Error = err.Error()
		log.Printf("❌ Notify: %v", err)
		return res
	}

	res.Delivered = d.notifier.Send(ctx, msg)
	if !res.Delivered {
		res.Error = "delivery failed"
		log.WithFields(log.Fields{"kind": in.Kind, "po": in.PONumber}).Warn("❌ Notify: delivery failed")
		return res
	}
	log.WithFields(log.Fields{"kind": in.Kind, "po": in.PONumber, "to": len(res.Recipients)}).Info("📧 Notify: sent")
	return res
}

func (d *Dispatcher) record(ctx context.Context, in Intent, res Result) {
	if d.logs == nil {
		return
	}
	recipients, _ := json.Marshal(res.Recipients)
	payload, _ := json.Marshal(in)
	entry := &models.NotificationLog{
		ID:         uuid.New().String(),
		Kind:       string(in.Kind),
		PONumber:   in.PONumber,
		Subject:    Subject(in),
		Recipients: datatypes.JSON(recipients),
		Payload:    datatypes.JSON(payload),
		Delivered:  res.Delivered,
		Error:      res.Error,
		CreatedAt:  d.now().UTC(),
	}
	if err := d.logs.Record(ctx, entry); err != nil {
		log.Printf("⚠️  Notify: failed to record notification log: %v", err)
	}
}
