package models

type User struct {
	ID                int    `json:"id"`
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phoneNumber"`
	PasswordHash      string `json:"-"`
	Verified          bool   `json:"verified"`
	VerificationToken string `json:"-"`

	// Denormalized leaderboard projection, written only by the
	// leaderboard package.
	CurrentRank       int   `json:"currentRank"`
	CurrentWeekPoints int64 `json:"currentWeekPoints"`
	Points            int64 `json:"points"`
}

// DayCompletion tracks whether a user has finished the quiz for a given
// day of the running week (days 1-6).
type DayCompletion struct {
	Day       int  `json:"day"`
	Completed bool `json:"completed"`
}
