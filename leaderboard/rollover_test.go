package leaderboard

import (
	"context"
	"errors"
	"testing"
)

func TestRolloverArchivesAndResets(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "Ada", 2: "Ben"})
	engine := NewEngine(repo)
	ctx := context.Background()

	p := newTestProcessor(repo, WeekStart(10))
	if _, err := p.Submit(ctx, 1, 50); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := p.Submit(ctx, 2, 80); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	controller := NewRolloverController(repo, engine)
	if err := controller.RunRolloverIfDue(ctx, WeekStart(11)); err != nil {
		t.Fatalf("rollover failed: %v", err)
	}

	snap, err := repo.GetSnapshot(ctx, 10)
	if err != nil {
		t.Fatalf("expected snapshot for week 10: %v", err)
	}
	want := []Standing{
		{UserID: 2, Score: 80, Rank: 1},
		{UserID: 1, Score: 50, Rank: 2},
	}
	if len(snap.Rankings) != len(want) {
		t.Fatalf("expected %d archived rankings, got %d", len(want), len(snap.Rankings))
	}
	for i := range want {
		if snap.Rankings[i] != want[i] {
			t.Fatalf("archived ranking %d: got %+v, want %+v", i, snap.Rankings[i], want[i])
		}
	}

	entry, err := repo.GetEntry(ctx, 1)
	if err != nil {
		t.Fatalf("entry read failed: %v", err)
	}
	if entry.Week != 11 || entry.WeekTotal != 0 || entry.LastWeekTotal != 50 || entry.Rank != 0 {
		t.Fatalf("entry not reset for the new week: %+v", entry)
	}
	if entry.GrandTotal != 50 {
		t.Fatalf("reset must not touch the grand total, got %d", entry.GrandTotal)
	}
}

func TestRolloverIsIdempotent(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "Ada"})
	engine := NewEngine(repo)
	ctx := context.Background()

	p := newTestProcessor(repo, WeekStart(10))
	if _, err := p.Submit(ctx, 1, 50); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	controller := NewRolloverController(repo, engine)
	if err := controller.RunRolloverIfDue(ctx, WeekStart(11)); err != nil {
		t.Fatalf("first rollover failed: %v", err)
	}
	if err := controller.RunRolloverIfDue(ctx, WeekStart(11)); err != nil {
		t.Fatalf("second rollover failed: %v", err)
	}

	if len(repo.snapshots) != 1 {
		t.Fatalf("expected exactly one snapshot, got %d", len(repo.snapshots))
	}
	entry, _ := repo.GetEntry(ctx, 1)
	if entry.LastWeekTotal != 50 {
		t.Fatalf("second rollover must not reset again, last week total = %d", entry.LastWeekTotal)
	}
}

func TestRolloverNoOpWhenNothingIsStale(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "Ada"})
	engine := NewEngine(repo)
	ctx := context.Background()

	p := newTestProcessor(repo, WeekStart(10))
	if _, err := p.Submit(ctx, 1, 50); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	controller := NewRolloverController(repo, engine)
	if err := controller.RunRolloverIfDue(ctx, WeekStart(10).Add(weekDuration/2)); err != nil {
		t.Fatalf("mid-week rollover check failed: %v", err)
	}

	if len(repo.snapshots) != 0 {
		t.Fatal("mid-week firing must not archive anything")
	}
	entry, _ := repo.GetEntry(ctx, 1)
	if entry.WeekTotal != 50 {
		t.Fatalf("mid-week firing must not reset totals, got %d", entry.WeekTotal)
	}
}

func TestRolloverMatchesLeaderboardBeforeReset(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "Ada", 2: "Ben", 3: "Cy"})
	engine := NewEngine(repo)
	ctx := context.Background()

	p := newTestProcessor(repo, WeekStart(10))
	for userID, score := range map[int]int64{1: 45, 2: 90, 3: 45} {
		if _, err := p.Submit(ctx, userID, score); err != nil {
			t.Fatalf("submit for user %d failed: %v", userID, err)
		}
	}

	before, err := repo.CurrentLeaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard read failed: %v", err)
	}

	controller := NewRolloverController(repo, engine)
	if err := controller.RunRolloverIfDue(ctx, WeekStart(11)); err != nil {
		t.Fatalf("rollover failed: %v", err)
	}

	snap, err := repo.GetSnapshot(ctx, 10)
	if err != nil {
		t.Fatalf("snapshot read failed: %v", err)
	}
	if len(snap.Rankings) != len(before) {
		t.Fatalf("archive size %d != leaderboard size %d", len(snap.Rankings), len(before))
	}
	for i, row := range before {
		archived := snap.Rankings[i]
		if archived.Rank != row.Rank || archived.Score != row.WeekTotal {
			t.Fatalf("position %d diverged: archived %+v, live was %+v", i, archived, row)
		}
	}
}

func TestRolloverResumesAfterPartialRun(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "Ada"})
	engine := NewEngine(repo)
	ctx := context.Background()

	p := newTestProcessor(repo, WeekStart(10))
	if _, err := p.Submit(ctx, 1, 50); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	controller := NewRolloverController(repo, engine)

	// Simulate a crash after the archive phase: the snapshot exists but
	// the live entries were never reset.
	if err := controller.archiveWeek(ctx, 10); err != nil {
		t.Fatalf("archive phase failed: %v", err)
	}
	entry, _ := repo.GetEntry(ctx, 1)
	if entry.Week != 10 {
		t.Fatal("precondition: entry should still be in the old week")
	}

	if err := controller.RunRolloverIfDue(ctx, WeekStart(11)); err != nil {
		t.Fatalf("resumed rollover failed: %v", err)
	}

	if len(repo.snapshots) != 1 {
		t.Fatalf("resume must not duplicate the snapshot, got %d", len(repo.snapshots))
	}
	entry, _ = repo.GetEntry(ctx, 1)
	if entry.Week != 11 || entry.WeekTotal != 0 || entry.LastWeekTotal != 50 {
		t.Fatalf("resume did not complete the reset: %+v", entry)
	}
}

func TestRolloverHandlesEmptyWeek(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "Ada"})
	engine := NewEngine(repo)
	ctx := context.Background()

	// A user submitted only a zero score: entry exists, nobody ranked.
	p := newTestProcessor(repo, WeekStart(10))
	if _, err := p.Submit(ctx, 1, 0); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	controller := NewRolloverController(repo, engine)
	if err := controller.RunRolloverIfDue(ctx, WeekStart(11)); err != nil {
		t.Fatalf("rollover failed: %v", err)
	}

	snap, err := repo.GetSnapshot(ctx, 10)
	if err != nil {
		t.Fatalf("empty week should still be archived: %v", err)
	}
	if len(snap.Rankings) != 0 {
		t.Fatalf("expected empty rankings, got %+v", snap.Rankings)
	}
	entry, _ := repo.GetEntry(ctx, 1)
	if entry.Week != 11 {
		t.Fatalf("entry should be retagged to week 11, got %d", entry.Week)
	}
}

func TestHistoryMissingWeekReturnsNotFound(t *testing.T) {
	repo := newMemoryRepository(map[int]string{})
	if _, err := repo.GetSnapshot(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unarchived week, got %v", err)
	}
}
