package leaderboard

import (
	"errors"
	"time"
)

// Entry is the live, mutable weekly aggregate for one user. There is at
// most one entry per user; the row is mutated in place across weeks
// rather than recreated. Version backs the compare-and-swap update path.
type Entry struct {
	UserID        int   `json:"userId"`
	Week          int64 `json:"week"`
	WeekTotal     int64 `json:"weekTotal"`
	LastWeekTotal int64 `json:"lastWeekTotal"`
	GrandTotal    int64 `json:"grandTotal"`
	Rank          int   `json:"rank"`
	Version       int64 `json:"-"`
}

// Standing is one ranked position within a week. Rank 0 means unranked.
type Standing struct {
	UserID int   `json:"userId"`
	Score  int64 `json:"score"`
	Rank   int   `json:"rank"`
}

// HistorySnapshot is the immutable archive of a finished week's final
// standings, written exactly once by the rollover controller.
type HistorySnapshot struct {
	Week      int64      `json:"week"`
	CreatedAt time.Time  `json:"createdAt"`
	Rankings  []Standing `json:"rankings"`
}

// Row is one line of the user-facing current leaderboard.
type Row struct {
	FullName  string `json:"fullName"`
	WeekTotal int64  `json:"currentWeekTotal"`
	Rank      int    `json:"rank"`
}

// SubmitResult is returned to the caller after a score submission. The
// rank reflects the recomputation that observed this submission's delta.
type SubmitResult struct {
	Rank      int   `json:"rank"`
	WeekTotal int64 `json:"currentWeekTotal"`
}

var (
	ErrInvalidScore = errors.New("score must be non-negative")
	ErrUnknownUser  = errors.New("unknown user")
	ErrNotFound     = errors.New("not found")

	// ErrConflict reports a lost optimistic-concurrency race or an
	// attempt to create a record that already exists.
	ErrConflict = errors.New("store conflict")

	// ErrTransient reports that conflict retries were exhausted; the
	// submission was not applied and may be retried by the caller.
	ErrTransient = errors.New("transient store failure")

	// ErrDegradedRanking reports that the score totals were committed
	// but the rank could not be confirmed. Totals are never lost.
	ErrDegradedRanking = errors.New("score recorded but rank may be stale")
)
