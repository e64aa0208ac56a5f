package leaderboard

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StartScheduler wires the rollover controller to a cron schedule. The
// schedule fires more often than the week boundary; the controller's own
// due-check makes the extra firings no-ops.
func StartScheduler(spec string, controller *RolloverController) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := controller.RunRolloverIfDue(ctx, time.Now()); err != nil {
			log.Printf("Scheduled rollover failed (will retry on next firing): %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule rollover %q: %w", spec, err)
	}
	c.Start()
	log.Printf("Rollover scheduler started with spec %q", spec)
	return c, nil
}
