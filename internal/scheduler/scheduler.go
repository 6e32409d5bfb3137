// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dverbeek/portfolio-tracker/internal/service"
)

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron    *cron.Cron
	history *service.HistoryService
}

// New creates a Scheduler that warms the daily value cache on the
// given cron schedule (standard 5-field format).
func New(history *service.HistoryService, warmSchedule string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		history: history,
	}

	if _, err := s.cron.AddFunc(warmSchedule, s.warmValueCache); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// warmValueCache recomputes the full historical value series so the
// persistent cache stays a day or two behind at most. Running it off
// hours keeps request-path recomputation short.
func (s *Scheduler) warmValueCache() {
	start := time.Now()
	points, err := s.history.HistoricalValues(time.Time{}, time.Time{})
	if err != nil {
		log.Printf("Cache warm failed: %v", err)
		return
	}
	log.Printf("Cache warm complete: %d days in %s", len(points), time.Since(start).Round(time.Millisecond))
}
