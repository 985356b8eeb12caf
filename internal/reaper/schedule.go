package reaper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/charmbracelet/log"
)

// Schedule says when sweeps run. A cron expression takes precedence over
// the interval.
type Schedule struct {
	Every time.Duration
	Cron  string
}

// Validate checks the schedule can produce a next run
func (s Schedule) Validate() error {
	if s.Cron != "" {
		if !gronx.New().IsValid(s.Cron) {
			return fmt.Errorf("invalid cron expression %q", s.Cron)
		}
		return nil
	}
	if s.Every <= 0 {
		return errors.New("sweep interval must be positive")
	}
	return nil
}

// Next returns the first run strictly after t
func (s Schedule) Next(t time.Time) (time.Time, error) {
	if s.Cron != "" {
		return gronx.NextTickAfter(s.Cron, t, false)
	}
	return t.Add(s.Every), nil
}

// Scheduler runs sweeps until its context ends
type Scheduler struct {
	reaper   *Reaper
	schedule Schedule
	maxAge   func() time.Duration
	logger   *log.Logger

	// OnSweep, when set, receives every report
	OnSweep func(Report)
}

// NewScheduler creates a scheduler. maxAge is read before each sweep so
// retention can change while running.
func NewScheduler(r *Reaper, schedule Schedule, maxAge func() time.Duration, logger *log.Logger) (*Scheduler, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if maxAge == nil {
		maxAge = func() time.Duration { return DefaultMaxAge }
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{reaper: r, schedule: schedule, maxAge: maxAge, logger: logger}, nil
}

// Run sweeps once immediately and then on schedule. It returns nil when ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.sweep()

		next, err := s.schedule.Next(time.Now())
		if err != nil {
			return fmt.Errorf("next sweep: %w", err)
		}
		s.logger.Debug("next sweep scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (s *Scheduler) sweep() {
	maxAge := s.maxAge()
	rep := s.reaper.Sweep(maxAge)
	s.logger.Info("sweep complete",
		"max_age", maxAge,
		"scanned", rep.Scanned,
		"removed", rep.Removed,
		"freed", rep.BytesFreed(),
		"errors", len(rep.Errors))
	if s.OnSweep != nil {
		s.OnSweep(rep)
	}
}
