package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
)

type achievementRepository struct {
	db *sql.DB
}

// NewAchievementRepository creates a new AchievementRepository implementation
func NewAchievementRepository(db *sql.DB) repository.AchievementRepository {
	return &achievementRepository{db: db}
}

// List returns the whole catalog. A row whose criteria cannot be decoded is
// returned with an empty Kind so the evaluator reports it instead of
// dropping it silently.
func (r *achievementRepository) List(ctx context.Context) ([]models.Achievement, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")

	rows, err := queryRows(ctx, r.db, sqlBuilder.
		Select("id", "key", "name", "description", "category", "tier", "points", "criteria", "hidden", "created_at").
		From("achievements").
		OrderBy("id"))
	if err != nil {
		log.Error("failed to list achievements: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Achievement
	for rows.Next() {
		var a models.Achievement
		var criteria string
		if err := rows.Scan(&a.ID, &a.Key, &a.Name, &a.Description, &a.Category, &a.Tier, &a.Points, &criteria, &a.Hidden, &a.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(criteria), &a.Criteria); err != nil {
			log.Warn("undecodable criteria: key=%s, err=%v", a.Key, err)
			a.Criteria = models.Criteria{}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *achievementRepository) ListForUser(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	rows, err := queryRows(ctx, r.db, sqlBuilder.
		Select("ua.id", "ua.user_id", "ua.achievement_id", "a.key", "ua.progress", "ua.progress_max", "ua.earned_at").
		From("user_achievements ua").
		Join("achievements a ON a.id = ua.achievement_id").
		Where(squirrel.Eq{"ua.user_id": userID}).
		OrderBy("ua.achievement_id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UserAchievement
	for rows.Next() {
		var ua models.UserAchievement
		var earnedAt sql.NullTime
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.Key, &ua.Progress, &ua.ProgressMax, &earnedAt); err != nil {
			return nil, err
		}
		ua.EarnedAt = nullTimePtr(earnedAt)
		out = append(out, ua)
	}
	return out, rows.Err()
}

// Award sets earned_at only when it is still NULL, so concurrent evaluations
// of the same user cannot award twice.
func (r *achievementRepository) Award(ctx context.Context, userID string, achievementID int64, progress, progressMax int, at time.Time) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")

	res, err := r.db.ExecContext(ctx, `
INSERT INTO user_achievements (user_id, achievement_id, progress, progress_max, earned_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, achievement_id) DO UPDATE SET
    progress = excluded.progress,
    progress_max = excluded.progress_max,
    earned_at = excluded.earned_at,
    updated_at = excluded.updated_at
WHERE user_achievements.earned_at IS NULL`,
		userID, achievementID, progress, progressMax, at, at)
	if err != nil {
		log.Error("failed to award achievement: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		log.Info("achievement awarded: user=%s, achievement_id=%d", userID, achievementID)
	}
	return n > 0, nil
}

func (r *achievementRepository) UpdateProgress(ctx context.Context, userID string, achievementID int64, progress, progressMax int) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO user_achievements (user_id, achievement_id, progress, progress_max)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id, achievement_id) DO UPDATE SET
    progress = excluded.progress,
    progress_max = excluded.progress_max,
    updated_at = CURRENT_TIMESTAMP
WHERE user_achievements.earned_at IS NULL`,
		userID, achievementID, progress, progressMax)
	return err
}
