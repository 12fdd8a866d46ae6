package models

import "time"

type UserStats struct {
	UserID              string    `json:"user_id"`
	CurrentStreak       int       `json:"current_streak"`
	LongestStreak       int       `json:"longest_streak"`
	LastPlayedDate      string    `json:"last_played_date"`
	LifetimeScore       int       `json:"lifetime_score"`
	ChallengesCompleted int       `json:"challenges_completed"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type LeaderboardEntry struct {
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"`
	TotalScore int       `json:"total_score"`
	Rank       int       `json:"rank,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
