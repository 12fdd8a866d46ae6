package models

import "time"

// DateLayout is the storage format for challenge dates (UTC calendar days).
const DateLayout = "2006-01-02"

// ChallengeDate truncates t to its UTC calendar day in storage format.
func ChallengeDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

type DailyChallenge struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Tier struct {
	ID               int64                  `json:"id"`
	ChallengeID      int64                  `json:"challenge_id"`
	TierNumber       int                    `json:"tier_number"`
	TimeLimitSeconds int                    `json:"time_limit_seconds"`
	Assignments      []ScreenshotAssignment `json:"assignments,omitempty"`
}

// Size is the number of positions in the tier.
func (t Tier) Size() int {
	return len(t.Assignments)
}

// Assignment returns the assignment at a 1-based position.
func (t Tier) Assignment(position int) (ScreenshotAssignment, bool) {
	for _, a := range t.Assignments {
		if a.Position == position {
			return a, true
		}
	}
	return ScreenshotAssignment{}, false
}

type ScreenshotAssignment struct {
	ID           int64 `json:"id"`
	TierID       int64 `json:"tier_id"`
	Position     int   `json:"position"`
	ScreenshotID int64 `json:"screenshot_id"`
	BonusPercent *int  `json:"bonus_percent,omitempty"` // e.g. 150 = 1.5x
}

// NewChallenge is what the generator hands to storage in one transaction.
type NewChallenge struct {
	Date             string
	TierNumber       int
	TimeLimitSeconds int
	ScreenshotIDs    []int64 // index 0 is position 1

	// FinalBonusPercent scales the last position's score when set.
	FinalBonusPercent int
}

type CreateChallengeResult struct {
	Created             bool   `json:"created"`
	ChallengeID         int64  `json:"challenge_id"`
	Date                string `json:"date"`
	ScreenshotsAssigned int    `json:"screenshots_assigned"`
	Degraded            bool   `json:"degraded"` // pool smaller than requested, screenshots reused
}

// ChallengeView is today's challenge with its tiers and assignments.
type ChallengeView struct {
	Challenge DailyChallenge `json:"challenge"`
	Tiers     []Tier         `json:"tiers"`
}
