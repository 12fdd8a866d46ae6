package services_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vytor/dailyshot/internal/jobs"
	"github.com/vytor/dailyshot/internal/matcher"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
	"github.com/vytor/dailyshot/internal/repository/sqlite"
	"github.com/vytor/dailyshot/internal/scoring"
	"github.com/vytor/dailyshot/internal/services"
	"github.com/vytor/dailyshot/internal/testutil"
)

var today = time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingQueue keeps every request and optionally evaluates it inline.
type recordingQueue struct {
	mu       sync.Mutex
	requests []models.EvaluationRequest
	next     jobs.JobQueue
}

func (q *recordingQueue) EnqueueAchievementEvaluation(ctx context.Context, req models.EvaluationRequest) error {
	q.mu.Lock()
	q.requests = append(q.requests, req)
	q.mu.Unlock()
	if q.next != nil {
		return q.next.EnqueueAchievementEvaluation(ctx, req)
	}
	return nil
}

func (q *recordingQueue) byTrigger(trigger models.EvaluationTrigger) []models.EvaluationRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.EvaluationRequest
	for _, r := range q.requests {
		if r.Trigger == trigger {
			out = append(out, r)
		}
	}
	return out
}

// env is a full engine over an in-memory database.
type env struct {
	db    *sql.DB
	clock *clock
	shots []int64
	queue *recordingQueue

	catalogRepo     repository.CatalogRepository
	challengeRepo   repository.ChallengeRepository
	sessionRepo     repository.SessionRepository
	statsRepo       repository.StatsRepository
	achievementRepo repository.AchievementRepository

	challenges   services.ChallengeService
	leaderboard  services.LeaderboardService
	sessions     services.SessionService
	achievements services.AchievementService
}

type envOptions struct {
	catalogSize     int
	bonusRoundEvery int
	evaluateInline    bool
	matcher           matcher.Matcher
	finalBonusPercent int
}

func newEnv(t *testing.T, opts envOptions) *env {
	t.Helper()
	if opts.catalogSize == 0 {
		opts.catalogSize = 12
	}
	if opts.bonusRoundEvery == 0 {
		opts.bonusRoundEvery = 100
	}

	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	e := &env{
		db:              db,
		clock:           &clock{t: today},
		shots:           testutil.SeedCatalog(t, db, opts.catalogSize, 90),
		queue:           &recordingQueue{},
		catalogRepo:     sqlite.NewCatalogRepository(db),
		challengeRepo:   sqlite.NewChallengeRepository(db),
		sessionRepo:     sqlite.NewSessionRepository(db),
		statsRepo:       sqlite.NewStatsRepository(db),
		achievementRepo: sqlite.NewAchievementRepository(db),
	}

	e.leaderboard = services.NewLeaderboardService(sqlite.NewLeaderboardRepository(db))
	e.challenges = services.NewChallengeService(e.challengeRepo, e.catalogRepo, services.ChallengeSettings{
		ScreenshotsPerChallenge: 10,
		MinQuality:              70,
		TimeLimitSeconds:        30,
		FinalBonusPercent:       opts.finalBonusPercent,
	}, e.clock.Now)
	e.achievements = services.NewAchievementService(e.achievementRepo, e.sessionRepo, e.statsRepo, e.leaderboard, e.clock.Now)
	if opts.evaluateInline {
		e.queue.next = jobs.SyncQueue{Evaluator: e.achievements}
	}
	match := opts.matcher
	if match == nil {
		match = matcher.NewCatalogMatcher(e.catalogRepo)
	}
	e.sessions = services.NewSessionService(
		e.sessionRepo, e.challengeRepo, e.catalogRepo, e.statsRepo,
		e.challenges, e.leaderboard, match, e.queue,
		services.SessionSettings{
			Rules:           scoring.DefaultRules(),
			BonusRoundEvery: opts.bonusRoundEvery,
			Now:             e.clock.Now,
		},
	)
	return e
}

func (e *env) start(t *testing.T, userID string) *models.SessionView {
	t.Helper()
	view, err := e.sessions.StartOrResume(context.Background(), userID)
	require.NoError(t, err)
	return view
}

// answer returns the game id that solves a position.
func (e *env) answer(t *testing.T, view *models.SessionView, position int) int64 {
	t.Helper()
	for _, p := range view.Positions {
		if p.Position == position {
			shot, err := e.catalogRepo.GetScreenshot(context.Background(), p.ScreenshotID)
			require.NoError(t, err)
			require.NotNil(t, shot)
			return shot.GameID
		}
	}
	t.Fatalf("position %d not in session", position)
	return 0
}

func (e *env) guess(view *models.SessionView, position int, gameID int64, elapsedMs int64) (*models.GuessOutcome, error) {
	return e.sessions.SubmitGuess(context.Background(), models.GuessInput{
		UserID:    view.Session.UserID,
		SessionID: view.Session.ID,
		Position:  position,
		GameID:    &gameID,
		ElapsedMs: elapsedMs,
	})
}

// solve answers positions 1..n correctly at elapsedMs each.
func (e *env) solve(t *testing.T, view *models.SessionView, n int, elapsedMs int64) {
	t.Helper()
	for pos := 1; pos <= n; pos++ {
		out, err := e.guess(view, pos, e.answer(t, view, pos), elapsedMs)
		require.NoError(t, err)
		require.True(t, out.Correct, "position %d", pos)
	}
}

func (e *env) reload(t *testing.T, view *models.SessionView) *models.SessionView {
	t.Helper()
	v, err := e.sessions.GetSession(context.Background(), view.Session.UserID, view.Session.ID)
	require.NoError(t, err)
	return v
}

func positionStatus(view *models.SessionView, position int) models.PositionStatus {
	for _, p := range view.Positions {
		if p.Position == position {
			return p.Status
		}
	}
	return ""
}
