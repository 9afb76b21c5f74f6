// Package scheduler runs periodic housekeeping for the session slot.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vainnor/attendance-portal/models"
	"github.com/vainnor/attendance-portal/session"
)

// HistoryEnder closes the history row of a session.
type HistoryEnder interface {
	EndSession(ctx context.Context, id string, end time.Time, reason string) error
}

// Sweeper clears a slot whose session outlived its duration, for instance
// after the process that started it went away.
type Sweeper struct {
	store   session.Store
	history HistoryEnder
	now     func() time.Time
}

func NewSweeper(store session.Store, history HistoryEnder) *Sweeper {
	return &Sweeper{store: store, history: history, now: time.Now}
}

// Sweep clears the slot when its session has expired and reports whether it
// did.
func (s *Sweeper) Sweep(ctx context.Context) (bool, error) {
	current, err := s.store.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("read slot: %w", err)
	}
	now := s.now()
	if current == nil || current.Active(now) {
		return false, nil
	}

	if err := s.store.Clear(ctx); err != nil {
		return false, fmt.Errorf("clear slot: %w", err)
	}
	if s.history != nil && current.ID != "" {
		if err := s.history.EndSession(ctx, current.ID, current.EndsAt(), models.EndReasonSwept); err != nil {
			log.Printf("[SWEEPER] failed to close history for %s: %v", current.ID, err)
		}
	}
	log.Printf("[SWEEPER] cleared expired session %s for %s (ended %s)",
		current.ID, current.CourseCode, current.EndsAt().Format(time.RFC3339))
	return true, nil
}

// Start schedules Sweep on the cron schedule and starts the cron runner. Stop the
// returned cron on shutdown.
func (s *Sweeper) Start(schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			log.Printf("[SWEEPER] %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add sweep schedule %q: %w", schedule, err)
	}
	log.Printf("[SWEEPER] started schedule=%q", schedule)
	c.Start()
	return c, nil
}
