package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vytor/dailyshot/internal/models"
)

// Storage-level outcomes the services translate into application errors.
var (
	// ErrDuplicate means a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrSessionClosed means a conditional update found the session completed.
	ErrSessionClosed = errors.New("session already completed")
	// ErrPositionCorrect means a conditional update found the position already solved.
	ErrPositionCorrect = errors.New("position already correct")
	// ErrPowerUpUnavailable means no unused power-up of the requested type exists.
	ErrPowerUpUnavailable = errors.New("power-up unavailable")
)

// CatalogRepository is the read-mostly view over games and screenshots.
type CatalogRepository interface {
	ListEligibleScreenshots(ctx context.Context, minQuality int) ([]models.ScreenshotRef, error)
	IncrementUsage(ctx context.Context, screenshotID int64) error
	GetScreenshot(ctx context.Context, id int64) (*models.Screenshot, error)
	GetGame(ctx context.Context, id int64) (*models.Game, error)
	ListAliases(ctx context.Context, gameID int64) ([]string, error)
	UpsertGame(ctx context.Context, game models.Game, aliases []string) (int64, error)
	UpsertScreenshot(ctx context.Context, shot models.Screenshot) (int64, error)
}

// ChallengeRepository stores daily challenges, tiers and assignments.
type ChallengeRepository interface {
	// Create writes the challenge, its tier and every assignment in one
	// transaction. It returns ErrDuplicate when the date already exists.
	Create(ctx context.Context, c models.NewChallenge) (int64, error)
	Get(ctx context.Context, id int64) (*models.DailyChallenge, error)
	GetByDate(ctx context.Context, date string) (*models.DailyChallenge, error)
	ListTiers(ctx context.Context, challengeID int64) ([]models.Tier, error)
	GetTier(ctx context.Context, tierID int64) (*models.Tier, error)
	DeactivateBefore(ctx context.Context, date string) (int64, error)
}

// SessionRepository owns game sessions, tier sessions, positions, guesses,
// hints and power-ups. Every mutation is guarded by the session still being open.
type SessionRepository interface {
	// Create inserts a session with its tier session and one position row per
	// assignment. It returns ErrDuplicate when the user already has a session
	// for the challenge.
	Create(ctx context.Context, session models.GameSession, tier models.Tier) (int64, error)
	Get(ctx context.Context, id int64) (*models.GameSession, error)
	GetByUserAndChallenge(ctx context.Context, userID string, challengeID int64) (*models.GameSession, error)
	GetTierSession(ctx context.Context, gameSessionID, tierID int64) (*models.TierSession, error)
	ListPositions(ctx context.Context, tierSessionID int64) ([]models.PositionState, error)
	GetPosition(ctx context.Context, tierSessionID int64, position int) (*models.PositionState, error)

	// MovePosition applies a validated status change, conditional on the
	// current status being one of from. It returns ErrPositionCorrect when the
	// row is already correct and ErrSessionClosed when the session completed.
	MovePosition(ctx context.Context, sessionID, tierSessionID int64, position int, from []models.PositionStatus, to models.PositionStatus, cursor int) error
	// CommitGuess applies a scored guess atomically.
	CommitGuess(ctx context.Context, c models.GuessCommit) (*models.GuessCommitResult, error)
	ListGuesses(ctx context.Context, tierSessionID int64) ([]models.Guess, error)

	// RecordHint stores a hint once per (position, type). created is false
	// when the hint was already used, in which case nothing is deducted.
	RecordHint(ctx context.Context, sessionID, tierSessionID int64, position int, hint models.HintType, deduction int, viaPowerUp bool) (created bool, err error)

	AwardPowerUp(ctx context.Context, tierSessionID int64, kind models.PowerUpType, round int) (*models.PowerUp, error)
	ListPowerUps(ctx context.Context, tierSessionID int64) ([]models.PowerUp, error)

	// Complete marks the session and its tier sessions completed and applies
	// the unfound penalty, only if the session is still open. completed is
	// false when another caller got there first.
	Complete(ctx context.Context, sessionID int64, reason models.EndReason, unfoundPenalty int, at time.Time) (completed bool, err error)
	// ListOpenBefore returns active sessions whose challenge date is before date.
	ListOpenBefore(ctx context.Context, date string) ([]models.GameSession, error)
}

// AchievementRepository stores the achievement catalog and per-user progress.
type AchievementRepository interface {
	List(ctx context.Context) ([]models.Achievement, error)
	ListForUser(ctx context.Context, userID string) ([]models.UserAchievement, error)
	// Award marks the achievement earned. awarded is false when it was
	// already earned; a duplicate award is not an error.
	Award(ctx context.Context, userID string, achievementID int64, progress, progressMax int, at time.Time) (awarded bool, err error)
	UpdateProgress(ctx context.Context, userID string, achievementID int64, progress, progressMax int) error
}

// StatsRepository tracks per-user aggregates and lifetime guess counts.
type StatsRepository interface {
	Get(ctx context.Context, userID string) (*models.UserStats, error)
	// RecordPlayDay extends or resets the daily streak. changed is false when
	// the user already played on date.
	RecordPlayDay(ctx context.Context, userID, date string) (stats *models.UserStats, changed bool, err error)
	RecordCompletion(ctx context.Context, userID string, score int) (*models.UserStats, error)
	CountFastCorrectGuesses(ctx context.Context, userID string, thresholdMs int64) (int, error)
	CountCorrectInGenre(ctx context.Context, userID, genre string) (int, error)
	CountHintlessCompletions(ctx context.Context, userID string) (int, error)
}

// LeaderboardRepository stores one entry per user per challenge date.
type LeaderboardRepository interface {
	Upsert(ctx context.Context, entry models.LeaderboardEntry) error
	Rank(ctx context.Context, userID, date string) (*int, error)
	Top(ctx context.Context, date string, limit int) ([]models.LeaderboardEntry, error)
}
