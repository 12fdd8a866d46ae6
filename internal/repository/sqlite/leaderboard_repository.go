package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
)

type leaderboardRepository struct {
	db *sql.DB
}

// NewLeaderboardRepository creates a new LeaderboardRepository implementation
func NewLeaderboardRepository(db *sql.DB) repository.LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) Upsert(ctx context.Context, e models.LeaderboardEntry) error {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("recording leaderboard entry: user=%s, date=%s, score=%d", e.UserID, e.Date, e.TotalScore)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO leaderboard_entries (challenge_date, user_id, total_score, recorded_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(challenge_date, user_id) DO UPDATE SET
    total_score = excluded.total_score,
    recorded_at = excluded.recorded_at`,
		e.Date, e.UserID, e.TotalScore, e.RecordedAt)
	if err != nil {
		log.Error("failed to record leaderboard entry: %v", err)
	}
	return err
}

// Rank is one plus the number of strictly higher scores on date, so ties
// share a rank. It returns nil when the user has no entry.
func (r *leaderboardRepository) Rank(ctx context.Context, userID, date string) (*int, error) {
	var rank int
	err := r.db.QueryRowContext(ctx, `
SELECT 1 + (
    SELECT COUNT(*) FROM leaderboard_entries other
    WHERE other.challenge_date = me.challenge_date AND other.total_score > me.total_score
)
FROM leaderboard_entries me
WHERE me.challenge_date = ? AND me.user_id = ?`, date, userID).Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rank, nil
}

func (r *leaderboardRepository) Top(ctx context.Context, date string, limit int) ([]models.LeaderboardEntry, error) {
	b := sqlBuilder.
		Select("user_id", "challenge_date", "total_score", "recorded_at").
		From("leaderboard_entries").
		Where(squirrel.Eq{"challenge_date": date}).
		OrderBy("total_score DESC", "recorded_at ASC", "user_id ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	rows, err := queryRows(ctx, r.db, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LeaderboardEntry
	for i := 0; rows.Next(); i++ {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Date, &e.TotalScore, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Rank = i + 1
		if i > 0 && out[i-1].TotalScore == e.TotalScore {
			e.Rank = out[i-1].Rank
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
