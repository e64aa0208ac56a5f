package leaderboard

import "context"

// Repository is the store contract the ranking engine requires: durable
// per-user records with compare-and-swap updates, atomic bulk rank
// writes, and an append-only history.
type Repository interface {
	// GetEntry returns the user's live entry, or ErrNotFound.
	GetEntry(ctx context.Context, userID int) (*Entry, error)

	// CreateEntry inserts a new entry with version 0. Returns
	// ErrConflict if the user already has one.
	CreateEntry(ctx context.Context, entry *Entry) error

	// UpdateEntry writes the entry only if the stored version still
	// matches entry.Version, then bumps the version. Returns
	// ErrConflict on a mismatch.
	UpdateEntry(ctx context.Context, entry *Entry) error

	// WeekStandings returns entries for the week with a positive
	// total, ordered by score descending then user id ascending.
	// Rank fields are not populated.
	WeekStandings(ctx context.Context, week int64) ([]Standing, error)

	// SetRanks persists the given ranks and zeroes the rank of every
	// other entry in the week, atomically: either the whole ordering
	// lands or none of it does.
	SetRanks(ctx context.Context, week int64, ranked []Standing) error

	// StaleWeeks lists distinct weeks older than the given one that
	// still have live entries, oldest first.
	StaleWeeks(ctx context.Context, before int64) ([]int64, error)

	// ResetWeek atomically moves every entry older than newWeek into
	// it: week total shifts to last week total, week total and rank
	// zero, week retagged. The denormalized user projections for the
	// affected users are cleared in the same transaction.
	ResetWeek(ctx context.Context, newWeek int64) error

	// CreateSnapshot writes an immutable history snapshot. Returns
	// ErrConflict if the week is already archived.
	CreateSnapshot(ctx context.Context, snapshot *HistorySnapshot) error

	// HasSnapshot reports whether a week has been archived.
	HasSnapshot(ctx context.Context, week int64) (bool, error)

	// GetSnapshot returns an archived week, or ErrNotFound.
	GetSnapshot(ctx context.Context, week int64) (*HistorySnapshot, error)

	// UserExists reports whether the account subsystem knows the user.
	// The ranking engine never creates accounts.
	UserExists(ctx context.Context, userID int) (bool, error)

	// UpdateProjection mirrors rank and totals onto the user record
	// for fast reads.
	UpdateProjection(ctx context.Context, userID, rank int, weekTotal, grandTotal int64) error

	// CurrentLeaderboard returns the user-facing rows for the week,
	// positive totals only, ordered like WeekStandings.
	CurrentLeaderboard(ctx context.Context, week int64) ([]Row, error)
}
