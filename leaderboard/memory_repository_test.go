package leaderboard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// memoryRepository is an in-memory stand-in for the Postgres store with
// the same compare-and-swap and conflict semantics. failSetRanks and
// failUpdates inject failures for the retry paths.
type memoryRepository struct {
	mu          sync.Mutex
	users       map[int]string
	entries     map[int]*Entry
	snapshots   map[int64]*HistorySnapshot
	projections map[int]projection

	failSetRanks int
	failUpdates  int
}

type projection struct {
	rank       int
	weekTotal  int64
	grandTotal int64
}

func newMemoryRepository(users map[int]string) *memoryRepository {
	return &memoryRepository{
		users:       users,
		entries:     make(map[int]*Entry),
		snapshots:   make(map[int64]*HistorySnapshot),
		projections: make(map[int]projection),
	}
}

func (r *memoryRepository) GetEntry(_ context.Context, userID int) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *memoryRepository) CreateEntry(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.UserID]; ok {
		return ErrConflict
	}
	entry.Version = 0
	copied := *entry
	r.entries[entry.UserID] = &copied
	return nil
}

func (r *memoryRepository) UpdateEntry(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates > 0 {
		r.failUpdates--
		return ErrConflict
	}
	stored, ok := r.entries[entry.UserID]
	if !ok || stored.Version != entry.Version {
		return ErrConflict
	}
	entry.Version++
	copied := *entry
	r.entries[entry.UserID] = &copied
	return nil
}

func (r *memoryRepository) WeekStandings(_ context.Context, week int64) ([]Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	standings := make([]Standing, 0)
	for _, e := range r.entries {
		if e.Week == week && e.WeekTotal > 0 {
			standings = append(standings, Standing{UserID: e.UserID, Score: e.WeekTotal})
		}
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].UserID < standings[j].UserID
	})
	return standings, nil
}

func (r *memoryRepository) SetRanks(_ context.Context, week int64, ranked []Standing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSetRanks > 0 {
		r.failSetRanks--
		return errors.New("injected bulk write failure")
	}
	for _, e := range r.entries {
		if e.Week == week {
			e.Rank = 0
		}
	}
	for _, s := range ranked {
		if e, ok := r.entries[s.UserID]; ok && e.Week == week {
			e.Rank = s.Rank
		}
	}
	return nil
}

func (r *memoryRepository) StaleWeeks(_ context.Context, before int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int64]bool)
	weeks := make([]int64, 0)
	for _, e := range r.entries {
		if e.Week < before && !seen[e.Week] {
			seen[e.Week] = true
			weeks = append(weeks, e.Week)
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i] < weeks[j] })
	return weeks, nil
}

func (r *memoryRepository) ResetWeek(_ context.Context, newWeek int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Week < newWeek {
			e.LastWeekTotal = e.WeekTotal
			e.WeekTotal = 0
			e.Rank = 0
			e.Week = newWeek
			e.Version++
			r.projections[e.UserID] = projection{grandTotal: r.projections[e.UserID].grandTotal}
		}
	}
	return nil
}

func (r *memoryRepository) CreateSnapshot(_ context.Context, snapshot *HistorySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snapshots[snapshot.Week]; ok {
		return ErrConflict
	}
	snapshot.CreatedAt = time.Now()
	copied := *snapshot
	copied.Rankings = append([]Standing(nil), snapshot.Rankings...)
	r.snapshots[snapshot.Week] = &copied
	return nil
}

func (r *memoryRepository) HasSnapshot(_ context.Context, week int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.snapshots[week]
	return ok, nil
}

func (r *memoryRepository) GetSnapshot(_ context.Context, week int64) (*HistorySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snapshots[week]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *snap
	copied.Rankings = append([]Standing(nil), snap.Rankings...)
	return &copied, nil
}

func (r *memoryRepository) UserExists(_ context.Context, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[userID]
	return ok, nil
}

func (r *memoryRepository) UpdateProjection(_ context.Context, userID, rank int, weekTotal, grandTotal int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projections[userID] = projection{rank: rank, weekTotal: weekTotal, grandTotal: grandTotal}
	return nil
}

func (r *memoryRepository) CurrentLeaderboard(_ context.Context, week int64) ([]Row, error) {
	standings, err := r.WeekStandings(context.Background(), week)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	board := make([]Row, 0, len(standings))
	for _, s := range standings {
		board = append(board, Row{
			FullName:  r.users[s.UserID],
			WeekTotal: s.Score,
			Rank:      r.entries[s.UserID].Rank,
		})
	}
	return board, nil
}

var _ Repository = (*memoryRepository)(nil)
