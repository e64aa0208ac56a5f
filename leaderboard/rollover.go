package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// RolloverController archives finished weeks and resets the live
// aggregates for the new one. It runs as a single periodic task; the
// mutex keeps overlapping firings from doing duplicate work, and every
// step is idempotent so a crash between the archive and reset phases is
// healed by the next run.
type RolloverController struct {
	repo   Repository
	engine *Engine
	mu     sync.Mutex
}

func NewRolloverController(repo Repository, engine *Engine) *RolloverController {
	return &RolloverController{repo: repo, engine: engine}
}

// RunRolloverIfDue takes action only when the store still holds entries
// tagged with a week older than the one containing now. Safe to invoke
// far more often than the actual week boundary.
func (c *RolloverController) RunRolloverIfDue(ctx context.Context, now time.Time) error {
	if !c.mu.TryLock() {
		// A rollover is already in flight.
		return nil
	}
	defer c.mu.Unlock()

	current := WeekOf(now)
	stale, err := c.repo.StaleWeeks(ctx, current)
	if err != nil {
		return fmt.Errorf("detect finished weeks: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	for _, week := range stale {
		if err := c.archiveWeek(ctx, week); err != nil {
			return err
		}
	}

	if err := c.repo.ResetWeek(ctx, current); err != nil {
		return fmt.Errorf("reset entries into week %d: %w", current, err)
	}

	log.Printf("Rollover complete: archived weeks %v, live entries reset into week %d", stale, current)
	return nil
}

// archiveWeek freezes the final standings of a finished week. The ranks
// are recomputed first so the snapshot reflects the true order even if
// the last submission's recomputation never landed. An existing snapshot
// means a previous run already archived this week; skip and move on.
func (c *RolloverController) archiveWeek(ctx context.Context, week int64) error {
	archived, err := c.repo.HasSnapshot(ctx, week)
	if err != nil {
		return fmt.Errorf("check archive for week %d: %w", week, err)
	}
	if archived {
		return nil
	}

	standings, err := c.engine.Recompute(ctx, week)
	if err != nil {
		return fmt.Errorf("finalize week %d rankings: %w", week, err)
	}

	snapshot := &HistorySnapshot{Week: week, Rankings: standings}
	if err := c.repo.CreateSnapshot(ctx, snapshot); err != nil {
		if errors.Is(err, ErrConflict) {
			// Another run archived the week between the check and
			// the insert.
			return nil
		}
		return fmt.Errorf("archive week %d: %w", week, err)
	}

	log.Printf("Archived week %d with %d ranked entries", week, len(standings))
	return nil
}
