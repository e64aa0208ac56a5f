package leaderboard

import (
	"context"
	"testing"
)

func seedEntry(t *testing.T, repo *memoryRepository, userID int, week, total int64) {
	t.Helper()
	err := repo.CreateEntry(context.Background(), &Entry{
		UserID:     userID,
		Week:       week,
		WeekTotal:  total,
		GrandTotal: total,
	})
	if err != nil {
		t.Fatalf("seed entry for user %d: %v", userID, err)
	}
}

func TestRecomputeAssignsDenseRanks(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "Ada", 2: "Ben", 3: "Cy"})
	engine := NewEngine(repo)
	ctx := context.Background()

	seedEntry(t, repo, 1, 10, 50)
	seedEntry(t, repo, 2, 10, 80)
	seedEntry(t, repo, 3, 10, 30)

	standings, err := engine.Recompute(ctx, 10)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("expected 3 ranked standings, got %d", len(standings))
	}

	want := []Standing{
		{UserID: 2, Score: 80, Rank: 1},
		{UserID: 1, Score: 50, Rank: 2},
		{UserID: 3, Score: 30, Rank: 3},
	}
	for i, w := range want {
		if standings[i] != w {
			t.Fatalf("standing %d: got %+v, want %+v", i, standings[i], w)
		}
	}
}

func TestRecomputeTieBreaksByUserID(t *testing.T) {
	repo := newMemoryRepository(map[int]string{5: "E", 2: "B", 9: "I"})
	engine := NewEngine(repo)

	seedEntry(t, repo, 9, 3, 40)
	seedEntry(t, repo, 2, 3, 40)
	seedEntry(t, repo, 5, 3, 40)

	standings, err := engine.Recompute(context.Background(), 3)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	order := []int{2, 5, 9}
	for i, userID := range order {
		if standings[i].UserID != userID || standings[i].Rank != i+1 {
			t.Fatalf("tie-break position %d: got user %d rank %d", i, standings[i].UserID, standings[i].Rank)
		}
	}
}

func TestRecomputeExcludesZeroTotalsAndOtherWeeks(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "A", 2: "B", 3: "C"})
	engine := NewEngine(repo)
	ctx := context.Background()

	seedEntry(t, repo, 1, 7, 25)
	seedEntry(t, repo, 2, 7, 0)
	seedEntry(t, repo, 3, 6, 90) // previous week

	standings, err := engine.Recompute(ctx, 7)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if len(standings) != 1 || standings[0].UserID != 1 || standings[0].Rank != 1 {
		t.Fatalf("expected only user 1 at rank 1, got %+v", standings)
	}

	zero, _ := repo.GetEntry(ctx, 2)
	if zero.Rank != 0 {
		t.Fatalf("zero-total entry should stay unranked, got rank %d", zero.Rank)
	}
	other, _ := repo.GetEntry(ctx, 3)
	if other.Rank != 0 {
		t.Fatalf("other-week entry should not be ranked by this recompute, got rank %d", other.Rank)
	}
}

func TestRecomputeRanksAreUnique(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "A", 2: "B", 3: "C", 4: "D"})
	engine := NewEngine(repo)

	seedEntry(t, repo, 1, 1, 10)
	seedEntry(t, repo, 2, 1, 10)
	seedEntry(t, repo, 3, 1, 20)
	seedEntry(t, repo, 4, 1, 10)

	standings, err := engine.Recompute(context.Background(), 1)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	seen := make(map[int]bool)
	for _, s := range standings {
		if s.Rank < 1 {
			t.Fatalf("ranked standing with rank %d", s.Rank)
		}
		if seen[s.Rank] {
			t.Fatalf("duplicate rank %d in standings %+v", s.Rank, standings)
		}
		seen[s.Rank] = true
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "A", 2: "B"})
	engine := NewEngine(repo)
	ctx := context.Background()

	seedEntry(t, repo, 1, 4, 15)
	seedEntry(t, repo, 2, 4, 60)

	first, err := engine.Recompute(ctx, 4)
	if err != nil {
		t.Fatalf("first recompute failed: %v", err)
	}
	second, err := engine.Recompute(ctx, 4)
	if err != nil {
		t.Fatalf("second recompute failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("recompute changed size: %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("recompute not idempotent at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestRecomputeRetriesFailedBulkWrite(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "A"})
	engine := NewEngine(repo)

	seedEntry(t, repo, 1, 2, 5)
	repo.failSetRanks = 1

	standings, err := engine.Recompute(context.Background(), 2)
	if err != nil {
		t.Fatalf("expected retry to recover from one bulk write failure: %v", err)
	}
	if len(standings) != 1 || standings[0].Rank != 1 {
		t.Fatalf("unexpected standings after retry: %+v", standings)
	}
}

func TestRecomputeSurfacesExhaustedRetries(t *testing.T) {
	repo := newMemoryRepository(map[int]string{1: "A"})
	engine := NewEngine(repo)

	seedEntry(t, repo, 1, 2, 5)
	repo.failSetRanks = recomputeAttempts

	if _, err := engine.Recompute(context.Background(), 2); err == nil {
		t.Fatal("expected error after exhausting bulk write retries")
	}
}
