package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
	"github.com/vytor/dailyshot/internal/scoring"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// currentRound is the 1-based round a tier session is playing.
const currentRound = `(SELECT correct_count + 1 FROM tier_sessions WHERE id = ?)`

func (r *sessionRepository) Create(ctx context.Context, s models.GameSession, tier models.Tier) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("creating session: user=%s, challenge_id=%d, positions=%d", s.UserID, s.ChallengeID, tier.Size())

	var sessionID int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		id, err := insert(ctx, tx, sqlBuilder.
			Insert("game_sessions").
			Columns("user_id", "challenge_id", "current_tier_id", "current_position", "started_at").
			Values(s.UserID, s.ChallengeID, tier.ID, 1, s.StartedAt))
		if err != nil {
			return err
		}
		sessionID = id

		tierSessionID, err := insert(ctx, tx, sqlBuilder.
			Insert("tier_sessions").
			Columns("game_session_id", "tier_id", "started_at").
			Values(sessionID, tier.ID, s.StartedAt))
		if err != nil {
			return err
		}

		if tier.Size() == 0 {
			return nil
		}
		positions := sqlBuilder.
			Insert("position_states").
			Columns("tier_session_id", "position", "screenshot_id", "status")
		for _, a := range tier.Assignments {
			status := models.PositionNotVisited
			if a.Position == 1 {
				status = models.PositionInProgress
			}
			positions = positions.Values(tierSessionID, a.Position, a.ScreenshotID, string(status))
		}
		_, err = exec(ctx, tx, positions)
		return err
	})
	if isUniqueViolation(err) {
		log.Debug("session already exists: user=%s, challenge_id=%d", s.UserID, s.ChallengeID)
		return 0, repository.ErrDuplicate
	}
	if err != nil {
		log.Error("failed to create session: %v", err)
		return 0, err
	}

	log.Info("session created: id=%d, user=%s", sessionID, s.UserID)
	return sessionID, nil
}

func sessionSelect() squirrel.SelectBuilder {
	return sqlBuilder.
		Select(
			"gs.id", "gs.user_id", "gs.challenge_id", "dc.challenge_date",
			"gs.current_tier_id", "gs.current_position", "gs.score", "gs.completed",
			"gs.end_reason", "gs.unfound_count", "gs.unfound_penalty",
			"gs.started_at", "gs.completed_at",
		).
		From("game_sessions gs").
		Join("daily_challenges dc ON dc.id = gs.challenge_id")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.GameSession, error) {
	var s models.GameSession
	var reason sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(
		&s.ID, &s.UserID, &s.ChallengeID, &s.ChallengeDate,
		&s.CurrentTierID, &s.CurrentPosition, &s.Score, &s.Completed,
		&reason, &s.UnfoundCount, &s.UnfoundPenalty,
		&s.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	s.EndReason = models.EndReason(reason.String)
	s.CompletedAt = nullTimePtr(completedAt)
	return &s, nil
}

func (r *sessionRepository) getOne(ctx context.Context, b squirrel.SelectBuilder) (*models.GameSession, error) {
	row, err := queryRow(ctx, r.db, b)
	if err != nil {
		return nil, err
	}
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *sessionRepository) Get(ctx context.Context, id int64) (*models.GameSession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("getting session: id=%d", id)

	s, err := r.getOne(ctx, sessionSelect().Where(squirrel.Eq{"gs.id": id}))
	if err != nil {
		log.Error("failed to get session: %v", err)
	}
	return s, err
}

func (r *sessionRepository) GetByUserAndChallenge(ctx context.Context, userID string, challengeID int64) (*models.GameSession, error) {
	return r.getOne(ctx, sessionSelect().Where(squirrel.Eq{
		"gs.user_id":      userID,
		"gs.challenge_id": challengeID,
	}))
}

func (r *sessionRepository) GetTierSession(ctx context.Context, gameSessionID, tierID int64) (*models.TierSession, error) {
	row, err := queryRow(ctx, r.db, sqlBuilder.
		Select("id", "game_session_id", "tier_id", "score", "correct_count", "wrong_count", "completed", "started_at", "completed_at").
		From("tier_sessions").
		Where(squirrel.Eq{"game_session_id": gameSessionID, "tier_id": tierID}))
	if err != nil {
		return nil, err
	}

	var ts models.TierSession
	var completedAt sql.NullTime
	err = row.Scan(&ts.ID, &ts.GameSessionID, &ts.TierID, &ts.Score, &ts.CorrectCount, &ts.WrongCount, &ts.Completed, &ts.StartedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ts.CompletedAt = nullTimePtr(completedAt)
	return &ts, nil
}

var positionColumns = []string{"tier_session_id", "position", "screenshot_id", "status", "wrong_guesses", "hint_deduction"}

func scanPosition(row rowScanner) (*models.PositionState, error) {
	var p models.PositionState
	if err := row.Scan(&p.TierSessionID, &p.Position, &p.ScreenshotID, &p.Status, &p.WrongGuesses, &p.HintDeduction); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *sessionRepository) ListPositions(ctx context.Context, tierSessionID int64) ([]models.PositionState, error) {
	rows, err := queryRows(ctx, r.db, sqlBuilder.
		Select(positionColumns...).
		From("position_states").
		Where(squirrel.Eq{"tier_session_id": tierSessionID}).
		OrderBy("position"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PositionState
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *sessionRepository) GetPosition(ctx context.Context, tierSessionID int64, position int) (*models.PositionState, error) {
	row, err := queryRow(ctx, r.db, sqlBuilder.
		Select(positionColumns...).
		From("position_states").
		Where(squirrel.Eq{"tier_session_id": tierSessionID, "position": position}))
	if err != nil {
		return nil, err
	}
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// lockOpenSession moves the cursor and adds delta to the score, but only
// while the session is still open.
func lockOpenSession(ctx context.Context, tx *sql.Tx, sessionID int64, delta, cursor int) error {
	n, err := exec(ctx, tx, sqlBuilder.
		Update("game_sessions").
		Set("score", squirrel.Expr("MAX(score + ?, 0)", delta)).
		Set("current_position", cursor).
		Where(squirrel.Eq{"id": sessionID, "completed": 0}))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrSessionClosed
	}
	return nil
}

// positionConflict explains why a conditional position update matched nothing.
func positionConflict(ctx context.Context, tx *sql.Tx, tierSessionID int64, position int) error {
	var status models.PositionStatus
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM position_states WHERE tier_session_id = ? AND position = ?`,
		tierSessionID, position).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("position %d does not exist", position)
	}
	if err != nil {
		return err
	}
	if status == models.PositionCorrect {
		return repository.ErrPositionCorrect
	}
	return fmt.Errorf("position %d is %s", position, status)
}

func (r *sessionRepository) MovePosition(ctx context.Context, sessionID, tierSessionID int64, position int, from []models.PositionStatus, to models.PositionStatus, cursor int) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("moving position: session_id=%d, position=%d, to=%s, cursor=%d", sessionID, position, to, cursor)

	fromValues := make([]string, len(from))
	for i, f := range from {
		fromValues[i] = string(f)
	}

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockOpenSession(ctx, tx, sessionID, 0, cursor); err != nil {
			return err
		}
		n, err := exec(ctx, tx, sqlBuilder.
			Update("position_states").
			Set("status", string(to)).
			Where(squirrel.Eq{"tier_session_id": tierSessionID, "position": position, "status": fromValues}))
		if err != nil {
			return err
		}
		if n == 0 {
			return positionConflict(ctx, tx, tierSessionID, position)
		}
		return nil
	})
	if err != nil && !errors.Is(err, repository.ErrSessionClosed) && !errors.Is(err, repository.ErrPositionCorrect) {
		log.Error("failed to move position: %v", err)
	}
	return err
}

func consumePowerUp(ctx context.Context, tx *sql.Tx, tierSessionID int64, kind models.PowerUpType) error {
	res, err := tx.ExecContext(ctx, `
UPDATE power_ups
SET used = 1, used_round = `+currentRound+`
WHERE id = (
    SELECT id FROM power_ups
    WHERE tier_session_id = ? AND power_up_type = ? AND used = 0
    ORDER BY earned_round
    LIMIT 1
)`, tierSessionID, tierSessionID, string(kind))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrPowerUpUnavailable
	}
	return nil
}

func (r *sessionRepository) CommitGuess(ctx context.Context, c models.GuessCommit) (*models.GuessCommitResult, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("committing guess: session_id=%d, position=%d, correct=%v",
		c.SessionID, c.Guess.Position, c.Guess.IsCorrect)

	result := &models.GuessCommitResult{}
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		delta := c.Delta
		if c.Guess.IsCorrect {
			// Hints recorded up to this point all count against the answer.
			err := tx.QueryRowContext(ctx,
				`SELECT hint_deduction FROM position_states WHERE tier_session_id = ? AND position = ?`,
				c.TierSessionID, c.Guess.Position).Scan(&result.HintDeduction)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("position %d does not exist", c.Guess.Position)
			}
			if err != nil {
				return err
			}
			c.Guess.ScoreEarned = scoring.ApplyHints(c.Guess.ScoreEarned, result.HintDeduction)
			delta = c.Guess.ScoreEarned
		}
		result.ScoreEarned = c.Guess.ScoreEarned

		if err := lockOpenSession(ctx, tx, c.SessionID, delta, c.NextPosition); err != nil {
			return err
		}
		if c.ConsumePowerUp != nil {
			if err := consumePowerUp(ctx, tx, c.TierSessionID, *c.ConsumePowerUp); err != nil {
				return err
			}
		}

		where := squirrel.Eq{"tier_session_id": c.TierSessionID, "position": c.Guess.Position}
		if _, err := exec(ctx, tx, sqlBuilder.
			Update("position_states").
			Set("status", string(models.PositionInProgress)).
			Where(where).
			Where(squirrel.Eq{"status": string(models.PositionNotVisited)})); err != nil {
			return err
		}

		correctInc, wrongInc := 0, 1
		update := sqlBuilder.Update("position_states").Where(where)
		if c.Guess.IsCorrect {
			correctInc, wrongInc = 1, 0
			from := models.PreviousStates(models.PositionCorrect)
			fromValues := make([]string, len(from))
			for i, f := range from {
				fromValues[i] = string(f)
			}
			update = update.
				Set("status", string(models.PositionCorrect)).
				Where(squirrel.Eq{"status": fromValues})
			result.Status = models.PositionCorrect
		} else {
			update = update.
				Set("wrong_guesses", squirrel.Expr("wrong_guesses + 1")).
				Where(squirrel.NotEq{"status": string(models.PositionCorrect)})
		}
		n, err := exec(ctx, tx, update)
		if err != nil {
			return err
		}
		if n == 0 {
			return positionConflict(ctx, tx, c.TierSessionID, c.Guess.Position)
		}

		if _, err := exec(ctx, tx, sqlBuilder.
			Update("tier_sessions").
			Set("score", squirrel.Expr("MAX(score + ?, 0)", delta)).
			Set("correct_count", squirrel.Expr("correct_count + ?", correctInc)).
			Set("wrong_count", squirrel.Expr("wrong_count + ?", wrongInc)).
			Where(squirrel.Eq{"id": c.TierSessionID})); err != nil {
			return err
		}
		if c.Guess.IsCorrect {
			if err := incrementScreenshot(ctx, tx, c.Guess.ScreenshotID, "correct_count"); err != nil {
				return err
			}
		}

		var powerUp any
		if c.Guess.PowerUpUsed != nil {
			powerUp = string(*c.Guess.PowerUpUsed)
		}
		guessID, err := insert(ctx, tx, sqlBuilder.
			Insert("guesses").
			Columns("tier_session_id", "screenshot_id", "position", "guessed_game_id", "guessed_text",
				"is_correct", "timed_out", "time_taken_ms", "score_earned", "power_up_used", "created_at").
			Values(c.TierSessionID, c.Guess.ScreenshotID, c.Guess.Position, c.Guess.GuessedGameID, c.Guess.GuessedText,
				boolInt(c.Guess.IsCorrect), boolInt(c.Guess.TimedOut), c.Guess.TimeTakenMs, c.Guess.ScoreEarned, powerUp, c.Guess.CreatedAt))
		if err != nil {
			return err
		}
		result.GuessID = guessID

		err = tx.QueryRowContext(ctx, `
SELECT gs.score, ts.correct_count, ps.status
FROM game_sessions gs
JOIN tier_sessions ts ON ts.id = ?
JOIN position_states ps ON ps.tier_session_id = ts.id AND ps.position = ?
WHERE gs.id = ?`, c.TierSessionID, c.Guess.Position, c.SessionID).
			Scan(&result.SessionScore, &result.TierCorrect, &result.Status)
		return err
	})
	if err != nil {
		if !errors.Is(err, repository.ErrSessionClosed) &&
			!errors.Is(err, repository.ErrPositionCorrect) &&
			!errors.Is(err, repository.ErrPowerUpUnavailable) {
			log.Error("failed to commit guess: %v", err)
		}
		return nil, err
	}

	log.Debug("guess committed: id=%d, earned=%d, hint_deduction=%d, session_score=%d",
		result.GuessID, result.ScoreEarned, result.HintDeduction, result.SessionScore)
	return result, nil
}

func (r *sessionRepository) ListGuesses(ctx context.Context, tierSessionID int64) ([]models.Guess, error) {
	rows, err := queryRows(ctx, r.db, sqlBuilder.
		Select("id", "tier_session_id", "screenshot_id", "position", "guessed_game_id", "guessed_text",
			"is_correct", "timed_out", "time_taken_ms", "score_earned", "power_up_used", "created_at").
		From("guesses").
		Where(squirrel.Eq{"tier_session_id": tierSessionID}).
		OrderBy("id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Guess
	for rows.Next() {
		var g models.Guess
		var gameID sql.NullInt64
		var powerUp sql.NullString
		if err := rows.Scan(&g.ID, &g.TierSessionID, &g.ScreenshotID, &g.Position, &gameID, &g.GuessedText,
			&g.IsCorrect, &g.TimedOut, &g.TimeTakenMs, &g.ScoreEarned, &powerUp, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.GuessedGameID = nullInt64Ptr(gameID)
		if powerUp.Valid {
			p := models.PowerUpType(powerUp.String)
			g.PowerUpUsed = &p
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *sessionRepository) RecordHint(ctx context.Context, sessionID, tierSessionID int64, position int, hint models.HintType, deduction int, viaPowerUp bool) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("recording hint: session_id=%d, position=%d, type=%s, deduction=%d, power_up=%v",
		sessionID, position, hint, deduction, viaPowerUp)

	created := false
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		var completed bool
		err := tx.QueryRowContext(ctx, `SELECT completed FROM game_sessions WHERE id = ?`, sessionID).Scan(&completed)
		if err != nil {
			return err
		}
		if completed {
			return repository.ErrSessionClosed
		}

		var status models.PositionStatus
		err = tx.QueryRowContext(ctx,
			`SELECT status FROM position_states WHERE tier_session_id = ? AND position = ?`,
			tierSessionID, position).Scan(&status)
		if err != nil {
			return err
		}
		if status == models.PositionCorrect {
			return repository.ErrPositionCorrect
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO position_hints (tier_session_id, position, hint_type, deduction, via_power_up)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(tier_session_id, position, hint_type) DO NOTHING`,
			tierSessionID, position, string(hint), deduction, boolInt(viaPowerUp))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		created = true

		if viaPowerUp {
			if err := consumePowerUp(ctx, tx, tierSessionID, models.PowerUpFreeHint); err != nil {
				return err
			}
		}
		_, err = exec(ctx, tx, sqlBuilder.
			Update("position_states").
			Set("hint_deduction", squirrel.Expr("hint_deduction + ?", deduction)).
			Where(squirrel.Eq{"tier_session_id": tierSessionID, "position": position}))
		return err
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

var powerUpColumns = []string{"id", "tier_session_id", "power_up_type", "earned", "used", "earned_round", "used_round", "created_at"}

func scanPowerUp(row rowScanner) (*models.PowerUp, error) {
	var p models.PowerUp
	var usedRound sql.NullInt64
	if err := row.Scan(&p.ID, &p.TierSessionID, &p.Type, &p.Earned, &p.Used, &p.EarnedRound, &usedRound, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.UsedRound = nullIntPtr(usedRound)
	return &p, nil
}

// AwardPowerUp grants a power-up for a bonus round. It returns nil when that
// round was already rewarded.
func (r *sessionRepository) AwardPowerUp(ctx context.Context, tierSessionID int64, kind models.PowerUpType, round int) (*models.PowerUp, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	res, err := r.db.ExecContext(ctx, `
INSERT INTO power_ups (tier_session_id, power_up_type, earned_round)
VALUES (?, ?, ?)
ON CONFLICT(tier_session_id, earned_round) DO NOTHING`, tierSessionID, string(kind), round)
	if err != nil {
		log.Error("failed to award power-up: %v", err)
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		log.Debug("power-up already awarded: tier_session_id=%d, round=%d", tierSessionID, round)
		return nil, nil
	}

	row, err := queryRow(ctx, r.db, sqlBuilder.
		Select(powerUpColumns...).
		From("power_ups").
		Where(squirrel.Eq{"tier_session_id": tierSessionID, "earned_round": round}))
	if err != nil {
		return nil, err
	}
	p, err := scanPowerUp(row)
	if err != nil {
		return nil, err
	}
	log.Info("power-up awarded: tier_session_id=%d, type=%s, round=%d", tierSessionID, kind, round)
	return p, nil
}

func (r *sessionRepository) ListPowerUps(ctx context.Context, tierSessionID int64) ([]models.PowerUp, error) {
	rows, err := queryRows(ctx, r.db, sqlBuilder.
		Select(powerUpColumns...).
		From("power_ups").
		Where(squirrel.Eq{"tier_session_id": tierSessionID}).
		OrderBy("earned_round"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PowerUp
	for rows.Next() {
		p, err := scanPowerUp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *sessionRepository) Complete(ctx context.Context, sessionID int64, reason models.EndReason, unfoundPenalty int, at time.Time) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("completing session: id=%d, reason=%s", sessionID, reason)

	completed := false
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		unfoundByTier, err := unfoundPositions(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		unfound := 0
		for _, n := range unfoundByTier {
			unfound += n
		}
		penalty := scoring.UnfoundTotal(unfound, unfoundPenalty)

		n, err := exec(ctx, tx, sqlBuilder.
			Update("game_sessions").
			Set("completed", 1).
			Set("completed_at", at).
			Set("end_reason", string(reason)).
			Set("unfound_count", unfound).
			Set("unfound_penalty", penalty).
			Set("score", squirrel.Expr("MAX(score - ?, 0)", penalty)).
			Where(squirrel.Eq{"id": sessionID, "completed": 0}))
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		completed = true

		for tierSessionID, tierUnfound := range unfoundByTier {
			if _, err := exec(ctx, tx, sqlBuilder.
				Update("tier_sessions").
				Set("completed", 1).
				Set("completed_at", at).
				Set("score", squirrel.Expr("MAX(score - ?, 0)", scoring.UnfoundTotal(tierUnfound, unfoundPenalty))).
				Where(squirrel.Eq{"id": tierSessionID, "completed": 0})); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to complete session: %v", err)
		return false, err
	}
	if completed {
		log.Info("session completed: id=%d, reason=%s", sessionID, reason)
	} else {
		log.Debug("session already completed: id=%d", sessionID)
	}
	return completed, nil
}

// unfoundPositions counts the positions not yet correct in each of the
// session's tier sessions.
func unfoundPositions(ctx context.Context, tx *sql.Tx, sessionID int64) (map[int64]int, error) {
	rows, err := queryRows(ctx, tx, sqlBuilder.
		Select("ts.id").
		Column(squirrel.Expr("COALESCE(SUM(CASE WHEN ps.status != ? THEN 1 ELSE 0 END), 0)", string(models.PositionCorrect))).
		From("tier_sessions ts").
		LeftJoin("position_states ps ON ps.tier_session_id = ts.id").
		Where(squirrel.Eq{"ts.game_session_id": sessionID}).
		GroupBy("ts.id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (r *sessionRepository) ListOpenBefore(ctx context.Context, date string) ([]models.GameSession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	rows, err := queryRows(ctx, r.db, sessionSelect().
		Where(squirrel.Eq{"gs.completed": 0}).
		Where(squirrel.Lt{"dc.challenge_date": date}).
		OrderBy("gs.id"))
	if err != nil {
		log.Error("failed to list open sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.GameSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	log.Debug("found %d open sessions before %s", len(out), date)
	return out, rows.Err()
}
