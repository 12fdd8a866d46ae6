package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/vytor/dailyshot/internal/errors"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
)

// AchievementService evaluates achievement criteria and lists a user's progress
type AchievementService interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationReport, error)
	ListForUser(ctx context.Context, userID string) ([]models.AchievementProgress, error)
}

type achievementService struct {
	achievementRepo repository.AchievementRepository
	sessionRepo     repository.SessionRepository
	statsRepo       repository.StatsRepository
	leaderboard     LeaderboardService
	now             func() time.Time
}

// NewAchievementService creates a new AchievementService
func NewAchievementService(
	achievementRepo repository.AchievementRepository,
	sessionRepo repository.SessionRepository,
	statsRepo repository.StatsRepository,
	leaderboard LeaderboardService,
	now func() time.Time,
) AchievementService {
	if now == nil {
		now = time.Now
	}
	return &achievementService{
		achievementRepo: achievementRepo,
		sessionRepo:     sessionRepo,
		statsRepo:       statsRepo,
		leaderboard:     leaderboard,
		now:             now,
	}
}

// errNoSession marks session-scoped criteria evaluated without a session.
// They are skipped rather than reported.
var errNoSession = errors.New("no session in evaluation request")

// evaluation lazily loads the facts criteria need, once per Evaluate call.
type evaluation struct {
	svc *achievementService
	req models.EvaluationRequest

	stats    *models.UserStats
	session  *models.GameSession
	guesses  []models.Guess
	loadedSS bool
}

func (e *evaluation) userStats(ctx context.Context) (*models.UserStats, error) {
	if e.stats != nil {
		return e.stats, nil
	}
	stats, err := e.svc.statsRepo.Get(ctx, e.req.UserID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &models.UserStats{UserID: e.req.UserID}
	}
	e.stats = stats
	return stats, nil
}

func (e *evaluation) finishedSession(ctx context.Context) (*models.GameSession, []models.Guess, error) {
	if e.req.SessionID == 0 {
		return nil, nil, errNoSession
	}
	if e.loadedSS {
		return e.session, e.guesses, nil
	}

	session, err := e.svc.sessionRepo.Get(ctx, e.req.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil || session.UserID != e.req.UserID {
		return nil, nil, fmt.Errorf("session %d not found for user %s", e.req.SessionID, e.req.UserID)
	}
	ts, err := e.svc.sessionRepo.GetTierSession(ctx, session.ID, session.CurrentTierID)
	if err != nil {
		return nil, nil, err
	}
	var guesses []models.Guess
	if ts != nil {
		guesses, err = e.svc.sessionRepo.ListGuesses(ctx, ts.ID)
		if err != nil {
			return nil, nil, err
		}
	}

	e.session, e.guesses, e.loadedSS = session, guesses, true
	return session, guesses, nil
}

// longestRun is the longest streak of guesses satisfying ok, where any
// guess failing ok resets the run.
func longestRun(guesses []models.Guess, ok func(models.Guess) bool) int {
	best, run := 0, 0
	for _, g := range guesses {
		if !ok(g) {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}

func binary(met bool) (int, int) {
	if met {
		return 1, 1
	}
	return 0, 1
}

func requirePositive(name string, v int) error {
	if v <= 0 {
		return fmt.Errorf("criteria %s must be positive", name)
	}
	return nil
}

// progress returns how far the user is towards c and the target.
func (e *evaluation) progress(ctx context.Context, c models.Criteria) (int, int, error) {
	switch c.Kind {
	case models.CriteriaChallengesCompleted:
		if err := requirePositive("count", c.Count); err != nil {
			return 0, 0, err
		}
		stats, err := e.userStats(ctx)
		if err != nil {
			return 0, 0, err
		}
		return stats.ChallengesCompleted, c.Count, nil

	case models.CriteriaStreak:
		if err := requirePositive("days", c.Days); err != nil {
			return 0, 0, err
		}
		stats, err := e.userStats(ctx)
		if err != nil {
			return 0, 0, err
		}
		return max(stats.CurrentStreak, stats.LongestStreak), c.Days, nil

	case models.CriteriaTotalSpeed, models.CriteriaSingleSpeed:
		if c.ThresholdMs <= 0 {
			return 0, 0, errors.New("criteria threshold_ms must be positive")
		}
		n, err := e.svc.statsRepo.CountFastCorrectGuesses(ctx, e.req.UserID, c.ThresholdMs)
		if err != nil {
			return 0, 0, err
		}
		if c.Kind == models.CriteriaSingleSpeed {
			p, m := binary(n > 0)
			return p, m, nil
		}
		if err := requirePositive("count", c.Count); err != nil {
			return 0, 0, err
		}
		return n, c.Count, nil

	case models.CriteriaNoHints:
		if err := requirePositive("count", c.Count); err != nil {
			return 0, 0, err
		}
		n, err := e.svc.statsRepo.CountHintlessCompletions(ctx, e.req.UserID)
		if err != nil {
			return 0, 0, err
		}
		return n, c.Count, nil

	case models.CriteriaGenreMaster:
		if err := requirePositive("count", c.Count); err != nil {
			return 0, 0, err
		}
		if c.Genre == "" {
			return 0, 0, errors.New("criteria genre cannot be empty")
		}
		n, err := e.svc.statsRepo.CountCorrectInGenre(ctx, e.req.UserID, c.Genre)
		if err != nil {
			return 0, 0, err
		}
		return n, c.Count, nil

	case models.CriteriaConsecutiveSpeed:
		if err := requirePositive("count", c.Count); err != nil {
			return 0, 0, err
		}
		if c.ThresholdMs <= 0 {
			return 0, 0, errors.New("criteria threshold_ms must be positive")
		}
		_, guesses, err := e.finishedSession(ctx)
		if err != nil {
			return 0, 0, err
		}
		run := longestRun(guesses, func(g models.Guess) bool {
			return g.IsCorrect && g.TimeTakenMs < c.ThresholdMs
		})
		return run, c.Count, nil

	case models.CriteriaConsecutiveCorrect:
		if err := requirePositive("count", c.Count); err != nil {
			return 0, 0, err
		}
		_, guesses, err := e.finishedSession(ctx)
		if err != nil {
			return 0, 0, err
		}
		return longestRun(guesses, func(g models.Guess) bool { return g.IsCorrect }), c.Count, nil

	case models.CriteriaPerfectScore, models.CriteriaMinScore:
		if err := requirePositive("score", c.Score); err != nil {
			return 0, 0, err
		}
		session, _, err := e.finishedSession(ctx)
		if err != nil {
			return 0, 0, err
		}
		if !session.Completed {
			return 0, 1, nil
		}
		if c.Kind == models.CriteriaPerfectScore {
			p, m := binary(session.Score == c.Score)
			return p, m, nil
		}
		p, m := binary(session.Score >= c.Score)
		return p, m, nil

	case models.CriteriaLeaderboardRank:
		if err := requirePositive("rank", c.Rank); err != nil {
			return 0, 0, err
		}
		if e.req.Date == "" {
			return 0, 0, errNoSession
		}
		rank, err := e.svc.leaderboard.Rank(ctx, e.req.UserID, e.req.Date)
		if err != nil {
			return 0, 0, err
		}
		p, m := binary(rank != nil && *rank <= c.Rank)
		return p, m, nil
	}
	return 0, 0, fmt.Errorf("unknown criteria kind %q", c.Kind)
}

func (s *achievementService) Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationReport, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_service").WithFields(map[string]any{
		"user_id": req.UserID,
		"trigger": string(req.Trigger),
	})
	log.Debug("evaluating achievements: session_id=%d", req.SessionID)

	if req.UserID == "" {
		return nil, apperrors.NewValidationError("user_id", "cannot be empty")
	}

	catalog, err := s.achievementRepo.List(ctx)
	if err != nil {
		log.Error("failed to load achievement catalog: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	owned, err := s.achievementRepo.ListForUser(ctx, req.UserID)
	if err != nil {
		log.Error("failed to load user achievements: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	byID := make(map[int64]models.UserAchievement, len(owned))
	for _, ua := range owned {
		byID[ua.AchievementID] = ua
	}

	report := &models.EvaluationReport{UserID: req.UserID}
	eval := &evaluation{svc: s, req: req}

	for _, a := range catalog {
		current, has := byID[a.ID]
		if has && current.Earned() {
			continue
		}

		progress, target, err := eval.progress(ctx, a.Criteria)
		if errors.Is(err, errNoSession) {
			continue
		}
		if err != nil {
			report.Failures = append(report.Failures, criterionFailure(a.Key, err))
			continue
		}
		if progress > target {
			progress = target
		}

		if progress >= target {
			awarded, err := s.achievementRepo.Award(ctx, req.UserID, a.ID, progress, target, s.now().UTC())
			if err != nil {
				report.Failures = append(report.Failures, criterionFailure(a.Key, err))
				continue
			}
			if awarded {
				log.Info("achievement earned: key=%s", a.Key)
				report.Awarded = append(report.Awarded, a)
			}
			continue
		}

		if progress == 0 && !has {
			continue
		}
		if has && current.Progress == progress && current.ProgressMax == target {
			continue
		}
		if err := s.achievementRepo.UpdateProgress(ctx, req.UserID, a.ID, progress, target); err != nil {
			report.Failures = append(report.Failures, criterionFailure(a.Key, err))
			continue
		}
		report.Progressed = append(report.Progressed, models.UserAchievement{
			UserID:        req.UserID,
			AchievementID: a.ID,
			Key:           a.Key,
			Progress:      progress,
			ProgressMax:   target,
		})
	}

	if len(report.Failures) > 0 {
		log.Warn("achievement evaluation finished with %d failed criteria", len(report.Failures))
	}
	return report, nil
}

func criterionFailure(key string, err error) models.CriterionFailure {
	wrapped := apperrors.NewCriteriaEvaluationError(key, err)
	return models.CriterionFailure{
		AchievementKey: key,
		Err:            wrapped,
		Message:        wrapped.Error(),
	}
}

// ListForUser returns the catalog with the user's progress. Hidden
// achievements appear only once earned.
func (s *achievementService) ListForUser(ctx context.Context, userID string) ([]models.AchievementProgress, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing achievements: user=%s", userID)

	if userID == "" {
		return nil, apperrors.NewValidationError("user_id", "cannot be empty")
	}

	catalog, err := s.achievementRepo.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	owned, err := s.achievementRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	byID := make(map[int64]models.UserAchievement, len(owned))
	for _, ua := range owned {
		byID[ua.AchievementID] = ua
	}

	out := make([]models.AchievementProgress, 0, len(catalog))
	for _, a := range catalog {
		ua, has := byID[a.ID]
		if a.Hidden && !(has && ua.Earned()) {
			continue
		}
		p := models.AchievementProgress{Achievement: a}
		if has {
			p.Progress = ua.Progress
			p.ProgressMax = ua.ProgressMax
			p.EarnedAt = ua.EarnedAt
		}
		out = append(out, p)
	}
	return out, nil
}
