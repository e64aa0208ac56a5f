package leaderboard

import "time"

// weekEpoch is Monday 2024-01-01 00:00 UTC. Weeks are numbered
// consecutively from this reference so that ids stay monotonic across
// year boundaries; the boundary is always Monday midnight UTC.
var weekEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

const weekDuration = 7 * 24 * time.Hour

// WeekOf returns the scoring week containing the given instant. Both the
// submission path and the rollover controller derive the week from this
// one function so their period tagging can never diverge.
func WeekOf(now time.Time) int64 {
	diff := now.UTC().Sub(weekEpoch)
	week := int64(diff / weekDuration)
	if diff < 0 && diff%weekDuration != 0 {
		week--
	}
	return week
}

// WeekStart returns the instant a given week begins.
func WeekStart(week int64) time.Time {
	return weekEpoch.Add(time.Duration(week) * weekDuration)
}
