// Package missions runs the wall-clock-aligned background job that issues
// new strike-team missions, catching up across any offsets missed while
// the process was down (spec.md §4.I).
//
// Grounded on internal/game/manor.Manager.RunModeLoop: compute the next
// wall-clock event, sleep until it fires via time.NewTimer, act, loop —
// cancellable through ctx rather than a bespoke stop channel.
package missions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/blazecoop/internal/model"
	"github.com/udisondev/blazecoop/internal/refdata"
	"github.com/udisondev/blazecoop/internal/store"
)

// maxConsecutiveFailures stops the scheduler after this many back-to-back
// failed offsets (spec.md §4.I step 6).
const maxConsecutiveFailures = 10

// MissionStore is the slice of store.Store the scheduler needs.
type MissionStore interface {
	Begin(ctx context.Context) (store.Tx, error)
	LatestMission(ctx context.Context) (*model.StrikeTeamMission, error)
}

// Scheduler creates missions at the six fixed daily offsets.
type Scheduler struct {
	store  MissionStore
	tables *refdata.Tables
	now    func() time.Time
}

// New builds a Scheduler over store, drawing mission attributes from
// tables's MissionDescriptors.
func New(s MissionStore, tables *refdata.Tables) *Scheduler {
	return &Scheduler{store: s, tables: tables, now: time.Now}
}

// Run drives the scheduler loop until ctx is cancelled. Grounded on
// manor.Manager.RunModeLoop's timer-reschedule shape.
func (s *Scheduler) Run(ctx context.Context) error {
	failures := 0
	for {
		lastIdx, lastDay, err := s.lastOffset(ctx)
		if err != nil {
			failures++
			slog.Error("mission scheduler: determining last offset", "error", err, "consecutive_failures", failures)
			if failures >= maxConsecutiveFailures {
				return fmt.Errorf("mission scheduler: stopping after %d consecutive failures: %w", failures, err)
			}
			if !s.sleepBackoff(ctx, failures) {
				return ctx.Err()
			}
			continue
		}

		now := s.now()
		today := truncateToDay(now)

		if lastDay.Equal(today) && lastIdx >= len(offsetHours) {
			// All of today's offsets are done; sleep until midnight.
			next := today.AddDate(0, 0, 1)
			if !s.sleepUntil(ctx, next) {
				return ctx.Err()
			}
			continue
		}

		startIdx := 0
		if lastDay.Equal(today) {
			startIdx = lastIdx
		}
		nextIdx := startIdx + 1

		nextFire := time.Date(today.Year(), today.Month(), today.Day(), offsetHours[nextIdx-1], 0, 0, 0, now.Location())
		if !s.sleepUntil(ctx, nextFire) {
			return ctx.Err()
		}

		// The sleep may have returned immediately because nextFire was
		// already in the past (catch-up after downtime); batch-create
		// every offset up through whatever the wall clock has now
		// reached, not just the one we woke for.
		woke := s.now()
		current := nextIdx
		if truncateToDay(woke).Equal(today) {
			if c := offsetIndexFor(woke); c > current {
				current = c
			}
		}
		if current > len(offsetHours) {
			current = len(offsetHours)
		}

		if err := s.createThrough(ctx, startIdx+1, current); err != nil {
			failures++
			slog.Error("mission scheduler: creating missions", "error", err, "consecutive_failures", failures)
			if failures >= maxConsecutiveFailures {
				return fmt.Errorf("mission scheduler: stopping after %d consecutive failures: %w", failures, err)
			}
			if !s.sleepBackoff(ctx, failures) {
				return ctx.Err()
			}
			continue
		}
		failures = 0
	}
}

// lastOffset returns the offset index (1-based) of the most recently
// persisted mission and the day it was created on. If no mission has ever
// been persisted, it returns index 0 and the zero time.
func (s *Scheduler) lastOffset(ctx context.Context) (int, time.Time, error) {
	m, err := s.store.LatestMission(ctx)
	if err != nil {
		if err == store.ErrNotFound {
			return 0, time.Time{}, nil
		}
		return 0, time.Time{}, fmt.Errorf("loading latest mission: %w", err)
	}
	return offsetIndexFor(m.CreatedAt), truncateToDay(m.CreatedAt), nil
}

// offsetIndexFor returns the highest offset index whose hour has already
// passed for t's time-of-day, or 0 if t is before the first offset.
func offsetIndexFor(t time.Time) int {
	idx := 0
	for i, h := range offsetHours {
		if t.Hour() >= h {
			idx = i + 1
		}
	}
	return idx
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// createThrough creates every recipe mission for offset indexes from..to
// inclusive, each inside its own transaction (spec.md §4.I step 5).
func (s *Scheduler) createThrough(ctx context.Context, from, to int) error {
	for idx := from; idx <= to; idx++ {
		specs, ok := recipe[idx]
		if !ok {
			continue
		}
		tx, err := s.store.Begin(ctx)
		if err != nil {
			return fmt.Errorf("beginning transaction for offset %d: %w", idx, err)
		}
		for _, sp := range specs {
			m := build(s.tables, sp.Kind, sp.Difficulty, s.now())
			if _, err := tx.CreateMission(ctx, m); err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("creating mission for offset %d: %w", idx, err)
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("committing missions for offset %d: %w", idx, err)
		}
	}
	return nil
}

// sleepUntil blocks until t or ctx cancellation, returning false on
// cancellation. Delay is computed against s.now rather than time.Now so
// tests can drive the loop with a fake clock.
func (s *Scheduler) sleepUntil(ctx context.Context, t time.Time) bool {
	delay := t.Sub(s.now())
	if delay <= 0 {
		delay = time.Millisecond
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// sleepBackoff waits 5s times the failure count before retrying.
func (s *Scheduler) sleepBackoff(ctx context.Context, failures int) bool {
	timer := time.NewTimer(5 * time.Second * time.Duration(failures))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
