package leaderboard

import (
	"context"
	"fmt"
)

const recomputeAttempts = 3

// Engine derives the full ranking of a week from the store. The
// recomputation is global: every participant's rank is re-derived from
// scratch on each run, which keeps concurrent submissions convergent
// because the last recomputation to persist always reflects a complete,
// consistent ordering.
type Engine struct {
	repo Repository
}

func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// Recompute orders the week's participants (score descending, user id
// ascending on ties) and persists dense 1-based ranks in one atomic bulk
// write. Entries with no positive total are left at rank 0. A failed
// bulk write retries the whole recomputation rather than patching
// individual ranks; the operation is idempotent.
func (e *Engine) Recompute(ctx context.Context, week int64) ([]Standing, error) {
	var lastErr error
	for attempt := 0; attempt < recomputeAttempts; attempt++ {
		standings, err := e.repo.WeekStandings(ctx, week)
		if err != nil {
			lastErr = err
			continue
		}
		for i := range standings {
			standings[i].Rank = i + 1
		}
		if err := e.repo.SetRanks(ctx, week, standings); err != nil {
			lastErr = err
			continue
		}
		return standings, nil
	}
	return nil, fmt.Errorf("recompute week %d rankings: %w", week, lastErr)
}
