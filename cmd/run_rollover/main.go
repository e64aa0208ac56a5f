package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"biblekwiz-backend/database"
	"biblekwiz-backend/leaderboard"
)

// One-shot rollover pass for operators. Archives any finished weeks
// and resets current-week totals; a no-op mid-week.
func main() {
	if os.Getenv("RENDER") == "" {
		_ = godotenv.Load()
	}

	database.ConnectDB()

	repo := leaderboard.NewPostgresRepository(database.DB)
	engine := leaderboard.NewEngine(repo)
	controller := leaderboard.NewRolloverController(repo, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	if err := controller.RunRolloverIfDue(ctx, now); err != nil {
		log.Fatalf("rollover failed: %v", err)
	}

	fmt.Printf("Rollover pass completed. Current week is %d.\n", leaderboard.WeekOf(now))
}
