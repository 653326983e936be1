package backlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/notify"
	"github.com/xelth-com/receivinggo/internal/services/sportsinc"
)

const (
	lockKey = "receiving:backlog-sweep"
	lockTTL = 30 * time.Minute
)

// VendorClient looks up invoices for a PO
type VendorClient interface {
	FetchByPO(ctx context.Context, po string) ([]models.Invoice, error)
}

// Dispatcher delivers notification intents
type Dispatcher interface {
	Dispatch(ctx context.Context, intents []notify.Intent) []notify.Result
}

// SweepResult summarizes one pass over the backlog
type SweepResult struct {
	RunID       string   `json:"runId,omitempty"`
	Checked     int      `json:"checked"`
	Found       int      `json:"found"`
	NotFound    int      `json:"notFound"`
	Errors      int      `json:"errors"`
	Resolved    []string `json:"resolved"`
	Undelivered []string `json:"undelivered,omitempty"` // resolved, but the notice was not sent
}

// Sweeper checks every backlog entry against the vendor once
type Sweeper struct {
	store    *Store
	vendor   VendorClient
	notifier Dispatcher
	history  History
	locker   Locker
	delay    time.Duration

	running sync.Mutex
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewSweeper creates a sweeper. delay is the pause between vendor lookups.
func NewSweeper(store *Store, vendor VendorClient, notifier Dispatcher, delay time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		vendor:   vendor,
		notifier: notifier,
		delay:    delay,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// WithHistory records every sweep in h
func (s *Sweeper) WithHistory(h History) *Sweeper {
	s.history = h
	return s
}

// WithLocker makes sweeps exclusive across processes
func (s *Sweeper) WithLocker(l Locker) *Sweeper {
	s.locker = l
	return s
}

// Sweep checks each pending PO. A found PO triggers a resolved notification and is removed;
// a missing PO gets its last-checked time refreshed. Per-entry failures are counted, not returned.
func (s *Sweeper) Sweep(ctx context.Context, trigger string) (SweepResult, error) {
	if !s.running.TryLock() {
		return SweepResult{}, ErrSweepInProgress
	}
	defer s.running.Unlock()

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, lockKey, lockTTL)
		if err != nil {
			return SweepResult{}, err
		}
		defer release()
	}

	entries, err := s.store.List(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	started := s.now()
	result := SweepResult{Resolved: []string{}}
	run := &models.BacklogSweepRun{ID: uuid.New().String(), Trigger: trigger, StartedAt: started.UTC()}
	result.RunID = run.ID
	if s.history != nil {
		if err := s.history.Start(ctx, run); err != nil {
			log.Printf("⚠️  Backlog: failed to record sweep start: %v", err)
		}
	}

	log.Printf("🔍 Backlog: checking %d PO(s)", len(entries))
	var failures []string

	for i, entry := range entries {
		if i > 0 && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				failures = append(failures, err.Error())
				break
			}
		}

		result.Checked++
		found, err := s.checkOne(ctx, entry, &result)
		if err != nil {
			result.Errors++
			failures = append(failures, fmt.Sprintf("%s: %v", entry.PONumber, err))
			log.WithField("po", entry.PONumber).Errorf("❌ Backlog: %v", err)
			if errors.Is(err, sportsinc.ErrMissingCredentials) || errors.Is(err, sportsinc.ErrAuthFailure) {
				break
			}
			continue
		}
		if found {
			result.Found++
		} else {
			result.NotFound++
		}
	}

	completed := s.now()
	run.CompletedAt = &completed
	run.Duration = int(completed.Sub(started).Milliseconds())
	run.Checked, run.Found, run.NotFound, run.Errors = result.Checked, result.Found, result.NotFound, result.Errors
	run.ErrorDetail = strings.Join(failures, "\n")
	if s.history != nil {
		if err := s.history.Finish(ctx, run); err != nil {
			log.Printf("⚠️  Backlog: failed to record sweep result: %v", err)
		}
	}

	log.WithFields(log.Fields{
		"checked":  result.Checked,
		"found":    result.Found,
		"notFound": result.NotFound,
		"errors":   result.Errors,
	}).Info("✅ Backlog: sweep complete")
	return result, nil
}

// checkOne returns whether the PO was found. A found PO is removed whether or not
// its notice was delivered; delivery failures are recorded on result.
func (s *Sweeper) checkOne(ctx context.Context, entry models.BacklogEntry, result *SweepResult) (bool, error) {
	invoices, err := s.vendor.FetchByPO(ctx, entry.PONumber)
	if err != nil {
		return false, err
	}

	if len(invoices) == 0 {
		if err := s.store.Touch(ctx, entry.PONumber, s.now()); err != nil {
			return false, err
		}
		return false, nil
	}

	log.Printf("🎯 Backlog: PO %s now available (%d invoice(s))", entry.PONumber, len(invoices))
	results := s.notifier.Dispatch(ctx, []notify.Intent{notify.BacklogResolvedIntent(entry.PONumber, invoices)})
	if len(results) == 0 || !results[0].Delivered {
		log.WithField("po", entry.PONumber).Warn("⚠️  Backlog: resolved notice not delivered")
		result.Undelivered = append(result.Undelivered, entry.PONumber)
	}
	if err := s.store.Remove(ctx, entry.PONumber); err != nil {
		return false, err
	}
	result.Resolved = append(result.Resolved, entry.PONumber)
	return true, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
