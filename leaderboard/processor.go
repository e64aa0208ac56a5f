package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const submitAttempts = 5

// Processor applies score submissions to the store. It holds no state
// between calls; every submission re-reads the authoritative entry, so
// concurrent submissions are safe without an application-level lock.
type Processor struct {
	repo   Repository
	engine *Engine
	now    func() time.Time
}

func NewProcessor(repo Repository, engine *Engine) *Processor {
	return &Processor{repo: repo, engine: engine, now: time.Now}
}

// Submit records a non-negative score delta for the user in the current
// week and returns the rank and week total after recomputation. When the
// totals commit but rank persistence fails, the result is returned
// together with ErrDegradedRanking; the score itself is never dropped.
func (p *Processor) Submit(ctx context.Context, userID int, score int64) (*SubmitResult, error) {
	if score < 0 {
		return nil, ErrInvalidScore
	}

	exists, err := p.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user account: %w", err)
	}
	if !exists {
		return nil, ErrUnknownUser
	}

	week := WeekOf(p.now())

	var entry *Entry
	for attempt := 0; attempt < submitAttempts; attempt++ {
		entry, err = p.applyDelta(ctx, userID, week, score)
		if err == nil || !errors.Is(err, ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("%w: submission for user %d kept losing the version race", ErrTransient, userID)
		}
		return nil, err
	}

	result := &SubmitResult{WeekTotal: entry.WeekTotal}

	standings, err := p.engine.Recompute(ctx, week)
	if err != nil {
		return result, ErrDegradedRanking
	}
	result.Rank = rankOf(standings, userID)

	if err := p.repo.UpdateProjection(ctx, userID, result.Rank, entry.WeekTotal, entry.GrandTotal); err != nil {
		return result, ErrDegradedRanking
	}
	return result, nil
}

// applyDelta performs one read-increment-write round. A stale week tag
// is caught up lazily before the delta lands: the old total shifts to
// last week, and the entry joins the current week from zero.
func (p *Processor) applyDelta(ctx context.Context, userID int, week, score int64) (*Entry, error) {
	entry, err := p.repo.GetEntry(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		entry = &Entry{
			UserID:     userID,
			Week:       week,
			WeekTotal:  score,
			GrandTotal: score,
		}
		if err := p.repo.CreateEntry(ctx, entry); err != nil {
			return nil, err
		}
		return entry, nil
	}
	if err != nil {
		return nil, err
	}

	if entry.Week != week {
		entry.LastWeekTotal = entry.WeekTotal
		entry.WeekTotal = 0
		entry.Rank = 0
		entry.Week = week
	}
	entry.WeekTotal += score
	entry.GrandTotal += score

	if err := p.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func rankOf(standings []Standing, userID int) int {
	for _, s := range standings {
		if s.UserID == userID {
			return s.Rank
		}
	}
	return 0
}
