package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
)

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository implementation
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

const statsSelect = `
SELECT user_id, current_streak, longest_streak, last_played_date,
       lifetime_score, challenges_completed, updated_at
FROM user_stats
WHERE user_id = ?`

func getStats(ctx context.Context, e execer, userID string) (*models.UserStats, error) {
	var s models.UserStats
	err := e.QueryRowContext(ctx, statsSelect, userID).Scan(
		&s.UserID, &s.CurrentStreak, &s.LongestStreak, &s.LastPlayedDate,
		&s.LifetimeScore, &s.ChallengesCompleted, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *statsRepository) Get(ctx context.Context, userID string) (*models.UserStats, error) {
	return getStats(ctx, r.db, userID)
}

// nextStreak returns the streak after playing on date, given the last day
// played. ok is false when date does not move the streak forward.
func nextStreak(current int, last, date string) (int, bool) {
	if last == "" {
		return 1, true
	}
	lastDay, err := time.Parse(models.DateLayout, last)
	if err != nil {
		return 1, true
	}
	day, err := time.Parse(models.DateLayout, date)
	if err != nil || !day.After(lastDay) {
		return current, false
	}
	if day.Equal(lastDay.AddDate(0, 0, 1)) {
		return current + 1, true
	}
	return 1, true
}

func (r *statsRepository) RecordPlayDay(ctx context.Context, userID, date string) (*models.UserStats, bool, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("recording play day: user=%s, date=%s", userID, date)

	var stats *models.UserStats
	changed := false
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getStats(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current == nil {
			current = &models.UserStats{UserID: userID}
		}

		streak, ok := nextStreak(current.CurrentStreak, current.LastPlayedDate, date)
		if !ok {
			stats = current
			return nil
		}
		changed = true
		longest := current.LongestStreak
		if streak > longest {
			longest = streak
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO user_stats (user_id, current_streak, longest_streak, last_played_date, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
    current_streak = excluded.current_streak,
    longest_streak = excluded.longest_streak,
    last_played_date = excluded.last_played_date,
    updated_at = CURRENT_TIMESTAMP`,
			userID, streak, longest, date)
		if err != nil {
			return err
		}
		stats, err = getStats(ctx, tx, userID)
		return err
	})
	if err != nil {
		log.Error("failed to record play day: %v", err)
		return nil, false, err
	}
	return stats, changed, nil
}

func (r *statsRepository) RecordCompletion(ctx context.Context, userID string, score int) (*models.UserStats, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("recording completion: user=%s, score=%d", userID, score)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO user_stats (user_id, lifetime_score, challenges_completed, updated_at)
VALUES (?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
    lifetime_score = lifetime_score + excluded.lifetime_score,
    challenges_completed = challenges_completed + 1,
    updated_at = CURRENT_TIMESTAMP`, userID, score)
	if err != nil {
		log.Error("failed to record completion: %v", err)
		return nil, err
	}
	return getStats(ctx, r.db, userID)
}

func (r *statsRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *statsRepository) CountFastCorrectGuesses(ctx context.Context, userID string, thresholdMs int64) (int, error) {
	return r.count(ctx, `
SELECT COUNT(*)
FROM guesses g
JOIN tier_sessions ts ON ts.id = g.tier_session_id
JOIN game_sessions gs ON gs.id = ts.game_session_id
WHERE gs.user_id = ? AND g.is_correct = 1 AND g.time_taken_ms < ?`, userID, thresholdMs)
}

func (r *statsRepository) CountCorrectInGenre(ctx context.Context, userID, genre string) (int, error) {
	return r.count(ctx, `
SELECT COUNT(*)
FROM guesses g
JOIN tier_sessions ts ON ts.id = g.tier_session_id
JOIN game_sessions gs ON gs.id = ts.game_session_id
JOIN screenshots s ON s.id = g.screenshot_id
JOIN games ga ON ga.id = s.game_id
WHERE gs.user_id = ? AND g.is_correct = 1 AND ga.genre = ? COLLATE NOCASE`, userID, genre)
}

func (r *statsRepository) CountHintlessCompletions(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `
SELECT COUNT(*)
FROM game_sessions gs
WHERE gs.user_id = ? AND gs.completed = 1
  AND NOT EXISTS (
      SELECT 1 FROM position_hints ph
      JOIN tier_sessions ts ON ts.id = ph.tier_session_id
      WHERE ts.game_session_id = gs.id
  )`, userID)
}
