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

type challengeRepository struct {
	db *sql.DB
}

// NewChallengeRepository creates a new ChallengeRepository implementation
func NewChallengeRepository(db *sql.DB) repository.ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(ctx context.Context, c models.NewChallenge) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")
	log.Debug("creating challenge: date=%s, screenshots=%d", c.Date, len(c.ScreenshotIDs))

	var challengeID int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		id, err := insert(ctx, tx, sqlBuilder.
			Insert("daily_challenges").
			Columns("challenge_date", "is_active").
			Values(c.Date, 1))
		if err != nil {
			return err
		}
		challengeID = id

		tierID, err := insert(ctx, tx, sqlBuilder.
			Insert("tiers").
			Columns("challenge_id", "tier_number", "time_limit_seconds").
			Values(challengeID, c.TierNumber, c.TimeLimitSeconds))
		if err != nil {
			return err
		}

		if len(c.ScreenshotIDs) == 0 {
			return nil
		}
		assignments := sqlBuilder.
			Insert("tier_screenshots").
			Columns("tier_id", "position", "screenshot_id", "bonus_percent")
		last := len(c.ScreenshotIDs)
		for i, screenshotID := range c.ScreenshotIDs {
			var bonus any
			if i+1 == last && c.FinalBonusPercent > 0 {
				bonus = c.FinalBonusPercent
			}
			assignments = assignments.Values(tierID, i+1, screenshotID, bonus)
		}
		_, err = exec(ctx, tx, assignments)
		return err
	})
	if isUniqueViolation(err) {
		log.Debug("challenge already exists: date=%s", c.Date)
		return 0, repository.ErrDuplicate
	}
	if err != nil {
		log.Error("failed to create challenge: %v", err)
		return 0, err
	}

	log.Info("challenge created: id=%d, date=%s", challengeID, c.Date)
	return challengeID, nil
}

var challengeColumns = []string{"id", "challenge_date", "is_active", "created_at"}

func scanChallenge(row *sql.Row) (*models.DailyChallenge, error) {
	var c models.DailyChallenge
	err := row.Scan(&c.ID, &c.Date, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *challengeRepository) Get(ctx context.Context, id int64) (*models.DailyChallenge, error) {
	row, err := queryRow(ctx, r.db, sqlBuilder.
		Select(challengeColumns...).
		From("daily_challenges").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	return scanChallenge(row)
}

func (r *challengeRepository) GetByDate(ctx context.Context, date string) (*models.DailyChallenge, error) {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")
	log.Debug("getting challenge by date: %s", date)

	row, err := queryRow(ctx, r.db, sqlBuilder.
		Select(challengeColumns...).
		From("daily_challenges").
		Where(squirrel.Eq{"challenge_date": date}))
	if err != nil {
		return nil, err
	}
	c, err := scanChallenge(row)
	if err != nil {
		log.Error("failed to get challenge: %v", err)
	}
	return c, err
}

func (r *challengeRepository) ListTiers(ctx context.Context, challengeID int64) ([]models.Tier, error) {
	rows, err := queryRows(ctx, r.db, sqlBuilder.
		Select("id", "challenge_id", "tier_number", "time_limit_seconds").
		From("tiers").
		Where(squirrel.Eq{"challenge_id": challengeID}).
		OrderBy("tier_number"))
	if err != nil {
		return nil, err
	}

	var tiers []models.Tier
	for rows.Next() {
		var t models.Tier
		if err := rows.Scan(&t.ID, &t.ChallengeID, &t.TierNumber, &t.TimeLimitSeconds); err != nil {
			rows.Close()
			return nil, err
		}
		tiers = append(tiers, t)
	}
	// Close before issuing the next query; the pool holds a single connection.
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tiers {
		assignments, err := r.listAssignments(ctx, tiers[i].ID)
		if err != nil {
			return nil, err
		}
		tiers[i].Assignments = assignments
	}
	return tiers, nil
}

func (r *challengeRepository) GetTier(ctx context.Context, tierID int64) (*models.Tier, error) {
	row, err := queryRow(ctx, r.db, sqlBuilder.
		Select("id", "challenge_id", "tier_number", "time_limit_seconds").
		From("tiers").
		Where(squirrel.Eq{"id": tierID}))
	if err != nil {
		return nil, err
	}

	var t models.Tier
	err = row.Scan(&t.ID, &t.ChallengeID, &t.TierNumber, &t.TimeLimitSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t.Assignments, err = r.listAssignments(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *challengeRepository) listAssignments(ctx context.Context, tierID int64) ([]models.ScreenshotAssignment, error) {
	rows, err := queryRows(ctx, r.db, sqlBuilder.
		Select("id", "tier_id", "position", "screenshot_id", "bonus_percent").
		From("tier_screenshots").
		Where(squirrel.Eq{"tier_id": tierID}).
		OrderBy("position"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScreenshotAssignment
	for rows.Next() {
		var a models.ScreenshotAssignment
		var bonus sql.NullInt64
		if err := rows.Scan(&a.ID, &a.TierID, &a.Position, &a.ScreenshotID, &bonus); err != nil {
			return nil, err
		}
		a.BonusPercent = nullIntPtr(bonus)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *challengeRepository) DeactivateBefore(ctx context.Context, date string) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")

	n, err := exec(ctx, r.db, sqlBuilder.
		Update("daily_challenges").
		Set("is_active", 0).
		Where(squirrel.Lt{"challenge_date": date}).
		Where(squirrel.Eq{"is_active": 1}))
	if err != nil {
		log.Error("failed to deactivate challenges: %v", err)
		return 0, err
	}
	log.Debug("deactivated %d challenges before %s", n, date)
	return n, nil
}
