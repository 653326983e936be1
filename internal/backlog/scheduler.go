package backlog

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/models"
)

// Scheduler runs a sweep once a day at a fixed wall-clock time
type Scheduler struct {
	sweeper *Sweeper
	hour    int
	minute  int
	loc     *time.Location
	stop    chan struct{}
	done    chan struct{}
}

// NewScheduler creates a scheduler firing daily at hour:minute in loc
func NewScheduler(sweeper *Sweeper, hour, minute int, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{sweeper: sweeper, hour: hour, minute: minute, loc: loc}
}

// NextRun returns the first scheduled time strictly after now
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

// Start begins the background loop
func (s *Scheduler) Start() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		log.Printf("⏰ Backlog checker scheduled daily at %02d:%02d %s", s.hour, s.minute, s.loc)

		for {
			next := s.NextRun(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-timer.C:
				s.run()
			case <-s.stop:
				timer.Stop()
				log.Println("🛑 Backlog checker stopped")
				return
			}
		}
	}()
}

// Stop halts the loop and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}

// RunNow triggers a sweep outside the schedule
func (s *Scheduler) RunNow(ctx context.Context) (SweepResult, error) {
	return s.sweeper.Sweep(ctx, models.SweepTriggerManual)
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), lockTTL)
	defer cancel()
	if _, err := s.sweeper.Sweep(ctx, models.SweepTriggerSchedule); err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			log.Println("⏭️  Backlog: sweep already running, skipping scheduled run")
			return
		}
		log.Printf("❌ Backlog: scheduled sweep failed: %v", err)
	}
}
