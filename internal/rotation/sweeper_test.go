package rotation_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/dailyshot/internal/matcher"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
	"github.com/vytor/dailyshot/internal/repository/sqlite"
	"github.com/vytor/dailyshot/internal/rotation"
	"github.com/vytor/dailyshot/internal/scoring"
	"github.com/vytor/dailyshot/internal/services"
	"github.com/vytor/dailyshot/internal/testutil"
	"github.com/vytor/dailyshot/internal/testutil/mocks"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type SweeperSuite struct {
	suite.Suite
	db          *sql.DB
	clock       *clock
	catalog     repository.CatalogRepository
	sessionRepo repository.SessionRepository
	challenges  services.ChallengeService
	sessions    services.SessionService
	sweeper     *rotation.Sweeper
	queue       *mocks.MockJobQueue
}

var day1 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func (s *SweeperSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.clock = &clock{t: day1}
	testutil.SeedCatalog(s.T(), s.db, 12, 90)

	s.catalog = sqlite.NewCatalogRepository(s.db)
	challengeRepo := sqlite.NewChallengeRepository(s.db)
	s.sessionRepo = sqlite.NewSessionRepository(s.db)
	statsRepo := sqlite.NewStatsRepository(s.db)
	leaderboard := services.NewLeaderboardService(sqlite.NewLeaderboardRepository(s.db))

	s.queue = &mocks.MockJobQueue{}
	s.queue.On("EnqueueAchievementEvaluation", mock.Anything, mock.Anything).Return(nil).Maybe()

	s.challenges = services.NewChallengeService(challengeRepo, s.catalog, services.ChallengeSettings{
		ScreenshotsPerChallenge: 10,
		MinQuality:              70,
		TimeLimitSeconds:        30,
	}, s.clock.Now)
	s.sessions = services.NewSessionService(
		s.sessionRepo, challengeRepo, s.catalog, statsRepo,
		s.challenges, leaderboard, matcher.NewCatalogMatcher(s.catalog), s.queue,
		services.SessionSettings{Rules: scoring.DefaultRules(), BonusRoundEvery: 100, Now: s.clock.Now},
	)
	s.sweeper = rotation.NewSweeper(s.challenges, s.sessions, s.sessionRepo, challengeRepo, rotation.Options{
		Concurrency:    3,
		SessionTimeout: 5 * time.Second,
	})
}

func (s *SweeperSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

// solve answers the first n positions of the session correctly in 2.5s each.
func (s *SweeperSuite) solve(view *models.SessionView, n int) {
	ctx := context.Background()
	for _, pos := range view.Positions[:n] {
		shot, err := s.catalog.GetScreenshot(ctx, pos.ScreenshotID)
		s.Require().NoError(err)
		gameID := shot.GameID

		out, err := s.sessions.SubmitGuess(ctx, models.GuessInput{
			UserID:    view.Session.UserID,
			SessionID: view.Session.ID,
			Position:  pos.Position,
			GameID:    &gameID,
			ElapsedMs: 2500,
		})
		s.Require().NoError(err)
		s.Require().True(out.Correct)
	}
}

func (s *SweeperSuite) TestRun_ForceClosesYesterdaysSessions() {
	ctx := context.Background()

	alice, err := s.sessions.StartOrResume(ctx, "alice")
	s.Require().NoError(err)
	s.solve(alice, 8)

	bob, err := s.sessions.StartOrResume(ctx, "bob")
	s.Require().NoError(err)

	s.clock.Set(day1.Add(24 * time.Hour))
	report, err := s.sweeper.Run(ctx, s.clock.Now())
	s.Require().NoError(err)

	s.Equal("2026-03-02", report.Date)
	s.True(report.ChallengeCreated)
	s.Empty(report.GeneratorError)
	s.Equal(2, report.ForcedClosed)
	s.Zero(report.AlreadyClosed)
	s.Empty(report.Failures)
	s.EqualValues(1, report.ChallengesDeactivated)

	closed, err := s.sessionRepo.Get(ctx, alice.Session.ID)
	s.Require().NoError(err)
	s.True(closed.Completed)
	s.Equal(models.EndForced, closed.EndReason)
	s.Equal(2, closed.UnfoundCount)
	s.Equal(1500, closed.Score)

	closed, err = s.sessionRepo.Get(ctx, bob.Session.ID)
	s.Require().NoError(err)
	s.True(closed.Completed)
	s.Equal(10, closed.UnfoundCount)
	s.Zero(closed.Score)
}

func (s *SweeperSuite) TestRun_IsIdempotent() {
	ctx := context.Background()

	alice, err := s.sessions.StartOrResume(ctx, "alice")
	s.Require().NoError(err)
	s.solve(alice, 8)

	s.clock.Set(day1.Add(24 * time.Hour))
	first, err := s.sweeper.Run(ctx, s.clock.Now())
	s.Require().NoError(err)
	s.Equal(1, first.ForcedClosed)

	second, err := s.sweeper.Run(ctx, s.clock.Now())
	s.Require().NoError(err)
	s.False(second.ChallengeCreated)
	s.Zero(second.ForcedClosed)
	s.Empty(second.Failures)

	closed, err := s.sessionRepo.Get(ctx, alice.Session.ID)
	s.Require().NoError(err)
	s.Equal(1500, closed.Score)
}

func (s *SweeperSuite) TestRun_LeavesTodaysSessionsOpen() {
	ctx := context.Background()

	_, err := s.challenges.CreateDailyChallenge(ctx, "2026-03-01")
	s.Require().NoError(err)
	view, err := s.sessions.StartOrResume(ctx, "carol")
	s.Require().NoError(err)

	report, err := s.sweeper.Run(ctx, s.clock.Now())
	s.Require().NoError(err)
	s.False(report.ChallengeCreated)
	s.Zero(report.ForcedClosed)

	session, err := s.sessionRepo.Get(ctx, view.Session.ID)
	s.Require().NoError(err)
	s.False(session.Completed)
}

func (s *SweeperSuite) TestRun_GeneratorFailureDoesNotStopSweep() {
	ctx := context.Background()

	view, err := s.sessions.StartOrResume(ctx, "dave")
	s.Require().NoError(err)

	_, err = s.db.Exec(`UPDATE screenshots SET is_active = 0`)
	s.Require().NoError(err)

	s.clock.Set(day1.Add(24 * time.Hour))
	report, err := s.sweeper.Run(ctx, s.clock.Now())
	s.Require().NoError(err)

	s.False(report.ChallengeCreated)
	s.NotEmpty(report.GeneratorError)
	s.Equal(1, report.ForcedClosed)

	session, err := s.sessionRepo.Get(ctx, view.Session.ID)
	s.Require().NoError(err)
	s.True(session.Completed)
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}
