package models

import "time"

type CriteriaKind string

const (
	CriteriaConsecutiveSpeed    CriteriaKind = "consecutive_speed"
	CriteriaTotalSpeed          CriteriaKind = "total_speed"
	CriteriaSingleSpeed         CriteriaKind = "single_speed"
	CriteriaNoHints             CriteriaKind = "no_hints"
	CriteriaConsecutiveCorrect  CriteriaKind = "consecutive_correct"
	CriteriaPerfectScore        CriteriaKind = "perfect_score"
	CriteriaMinScore            CriteriaKind = "min_score"
	CriteriaStreak              CriteriaKind = "streak"
	CriteriaGenreMaster         CriteriaKind = "genre_master"
	CriteriaChallengesCompleted CriteriaKind = "challenges_completed"
	CriteriaLeaderboardRank     CriteriaKind = "leaderboard_rank"
)

// Criteria is the machine-readable descriptor stored with each achievement.
// Which fields matter depends on Kind.
type Criteria struct {
	Kind        CriteriaKind `json:"kind"`
	Count       int          `json:"count,omitempty"`
	ThresholdMs int64        `json:"threshold_ms,omitempty"`
	Score       int          `json:"score,omitempty"`
	Days        int          `json:"days,omitempty"`
	Genre       string       `json:"genre,omitempty"`
	Rank        int          `json:"rank,omitempty"`
}

type Achievement struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Tier        int       `json:"tier"` // difficulty 1-3
	Points      int       `json:"points"`
	Criteria    Criteria  `json:"criteria"`
	Hidden      bool      `json:"hidden"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserAchievement struct {
	ID            int64      `json:"id"`
	UserID        string     `json:"user_id"`
	AchievementID int64      `json:"achievement_id"`
	Key           string     `json:"key"`
	Progress      int        `json:"progress"`
	ProgressMax   int        `json:"progress_max"`
	EarnedAt      *time.Time `json:"earned_at"`
}

func (u UserAchievement) Earned() bool {
	return u.EarnedAt != nil
}

type EvaluationTrigger string

const (
	TriggerSessionEnd   EvaluationTrigger = "session_end"
	TriggerStreakUpdate EvaluationTrigger = "streak_update"
)

// EvaluationRequest asks the evaluator to check a user's achievements.
type EvaluationRequest struct {
	UserID    string            `json:"user_id"`
	SessionID int64             `json:"session_id,omitempty"` // zero for streak updates
	Date      string            `json:"date"`
	Trigger   EvaluationTrigger `json:"trigger"`
}

type CriterionFailure struct {
	AchievementKey string `json:"achievement_key"`
	Err            error  `json:"-"`
	Message        string `json:"message"`
}

type EvaluationReport struct {
	UserID     string             `json:"user_id"`
	Awarded    []Achievement      `json:"awarded"`
	Progressed []UserAchievement  `json:"progressed"`
	Failures   []CriterionFailure `json:"failures"`
}

// AchievementProgress is one catalog entry as seen by a given user.
type AchievementProgress struct {
	Achievement
	Progress    int        `json:"progress"`
	ProgressMax int        `json:"progress_max"`
	EarnedAt    *time.Time `json:"earned_at"`
}
