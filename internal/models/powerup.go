package models

import "time"

type PowerUpType string

const (
	PowerUpDoubleTimer PowerUpType = "double_timer"
	PowerUpFreeHint    PowerUpType = "free_hint"
)

func (p PowerUpType) Valid() bool {
	return p == PowerUpDoubleTimer || p == PowerUpFreeHint
}

// BonusPowerUp returns the power-up earned on the n-th bonus round (1-based).
// Rounds alternate starting with a double timer.
func BonusPowerUp(n int) PowerUpType {
	if n%2 == 0 {
		return PowerUpFreeHint
	}
	return PowerUpDoubleTimer
}

type PowerUp struct {
	ID            int64       `json:"id"`
	TierSessionID int64       `json:"tier_session_id"`
	Type          PowerUpType `json:"type"`
	Earned        bool        `json:"earned"`
	Used          bool        `json:"used"`
	EarnedRound   int         `json:"earned_round"`
	UsedRound     *int        `json:"used_round"`
	CreatedAt     time.Time   `json:"created_at"`
}
