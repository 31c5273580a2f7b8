/*
scheduler.go - Background calendar upkeep and audit

PURPOSE:
  Periodically makes sure the current year has its fixed holidays and
  re-runs the day-count audit so the inconsistency gauge stays current.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Installs the fixed holidays of the current year when the year has none
    (an operator who deleted some of them keeps their edits)
  - Audits the current year and logs how many leaves drifted

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewScheduler(svc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Audit and AddDefaultHolidays endpoints (manual runs)
  - leave/audit.go: The audit itself
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/leave-engine/leave"
)

// Scheduler runs calendar upkeep and the audit on a ticker.
type Scheduler struct {
	Service       *leave.Service
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler(svc *leave.Service, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		Service:       svc,
		Logger:        logger,
		CheckInterval: time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler. It runs one pass immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run()

	s.Logger.Info("scheduler started", "interval", s.CheckInterval)
}

// Stop waits for the running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Logger.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.RunOnce(context.Background())
	for {
		select {
		case <-s.ticker.C:
			s.RunOnce(context.Background())
		case <-s.stop:
			return
		}
	}
}

// RunOnce performs one upkeep pass for the current year.
func (s *Scheduler) RunOnce(ctx context.Context) {
	year := time.Now().Year()
	if s.Service.Clock != nil {
		year = s.Service.Clock().Year()
	}

	existing, err := s.Service.ListHolidays(ctx, year)
	if err != nil {
		s.Logger.Error("scheduler: list holidays", "year", year, "error", err)
	} else if len(existing) == 0 {
		if _, err := s.Service.InstallDefaultHolidays(ctx, year); err != nil {
			s.Logger.Error("scheduler: install holidays", "year", year, "error", err)
		}
	}

	found := s.Service.Audit(ctx, year)
	if len(found) > 0 {
		s.Logger.Warn("scheduler: annual leave day counts drifted", "year", year, "count", len(found))
	}
}
