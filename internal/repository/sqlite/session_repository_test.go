package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
	"github.com/vytor/dailyshot/internal/repository/sqlite"
	"github.com/vytor/dailyshot/internal/testutil"
)

type SessionRepositorySuite struct {
	suite.Suite
	db          *sql.DB
	repo        repository.SessionRepository
	challengeID int64
	tier        models.Tier
	now         time.Time
}

func (s *SessionRepositorySuite) SetupTest() {
	ctx := context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewSessionRepository(s.db)
	s.now = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	challenges := sqlite.NewChallengeRepository(s.db)
	shots := testutil.SeedCatalog(s.T(), s.db, 3, 80)
	id, err := challenges.Create(ctx, models.NewChallenge{
		Date: "2026-01-15", TierNumber: 1, TimeLimitSeconds: 30, ScreenshotIDs: shots,
	})
	s.Require().NoError(err)
	s.challengeID = id

	tiers, err := challenges.ListTiers(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(tiers, 1)
	s.tier = tiers[0]
}

func (s *SessionRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

// start creates a session and returns it with its tier session.
func (s *SessionRepositorySuite) start(userID string) (*models.GameSession, *models.TierSession) {
	ctx := context.Background()
	id, err := s.repo.Create(ctx, models.GameSession{
		UserID:      userID,
		ChallengeID: s.challengeID,
		StartedAt:   s.now,
	}, s.tier)
	s.Require().NoError(err)

	session, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(session)

	ts, err := s.repo.GetTierSession(ctx, id, s.tier.ID)
	s.Require().NoError(err)
	s.Require().NotNil(ts)
	return session, ts
}

func (s *SessionRepositorySuite) guess(session *models.GameSession, ts *models.TierSession, position int, correct bool, delta int) (*models.GuessCommitResult, error) {
	a, ok := s.tier.Assignment(position)
	s.Require().True(ok)
	return s.repo.CommitGuess(context.Background(), models.GuessCommit{
		SessionID:     session.ID,
		TierSessionID: ts.ID,
		Guess: models.Guess{
			ScreenshotID: a.ScreenshotID,
			Position:     position,
			GuessedText:  "guess",
			IsCorrect:    correct,
			TimeTakenMs:  2500,
			ScoreEarned:  max(delta, 0),
			CreatedAt:    s.now,
		},
		Delta:        delta,
		NextPosition: position,
	})
}

func (s *SessionRepositorySuite) TestCreate() {
	ctx := context.Background()
	session, ts := s.start("alice")

	s.Equal("alice", session.UserID)
	s.Equal("2026-01-15", session.ChallengeDate)
	s.Equal(1, session.CurrentPosition)
	s.Equal(0, session.Score)
	s.False(session.Completed)
	s.Nil(session.CompletedAt)

	positions, err := s.repo.ListPositions(ctx, ts.ID)
	s.Require().NoError(err)
	s.Require().Len(positions, 3)
	s.Equal(models.PositionInProgress, positions[0].Status)
	s.Equal(models.PositionNotVisited, positions[1].Status)
	s.Equal(models.PositionNotVisited, positions[2].Status)

	_, err = s.repo.Create(ctx, models.GameSession{UserID: "alice", ChallengeID: s.challengeID, StartedAt: s.now}, s.tier)
	s.ErrorIs(err, repository.ErrDuplicate)

	found, err := s.repo.GetByUserAndChallenge(ctx, "alice", s.challengeID)
	s.Require().NoError(err)
	s.Equal(session.ID, found.ID)

	missing, err := s.repo.GetByUserAndChallenge(ctx, "bob", s.challengeID)
	s.NoError(err)
	s.Nil(missing)
}

func (s *SessionRepositorySuite) TestCommitGuess_CorrectIsTerminal() {
	ctx := context.Background()
	session, ts := s.start("alice")

	res, err := s.guess(session, ts, 1, true, 175)
	s.Require().NoError(err)
	s.Equal(175, res.SessionScore)
	s.Equal(1, res.TierCorrect)
	s.Equal(models.PositionCorrect, res.Status)

	_, err = s.guess(session, ts, 1, true, 175)
	s.ErrorIs(err, repository.ErrPositionCorrect)

	_, err = s.guess(session, ts, 1, false, -30)
	s.ErrorIs(err, repository.ErrPositionCorrect)

	reloaded, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(175, reloaded.Score)

	guesses, err := s.repo.ListGuesses(ctx, ts.ID)
	s.Require().NoError(err)
	s.Len(guesses, 1)

	s.Equal(1, s.correctCount(1), "rejected repeats leave the counter alone")
}

func (s *SessionRepositorySuite) TestCommitGuess_CountsCorrectWithGuess() {
	session, ts := s.start("alice")

	_, err := s.guess(session, ts, 2, false, -30)
	s.Require().NoError(err)
	s.Equal(0, s.correctCount(2))

	_, err = s.guess(session, ts, 2, true, 150)
	s.Require().NoError(err)
	s.Equal(1, s.correctCount(2))

	_, err = s.repo.Complete(context.Background(), session.ID, models.EndVoluntary, 50, s.now)
	s.Require().NoError(err)

	_, err = s.guess(session, ts, 3, true, 150)
	s.ErrorIs(err, repository.ErrSessionClosed)
	s.Equal(0, s.correctCount(3), "a rolled back guess is not counted")
}

// correctCount reads the shared correct-guess counter of the screenshot at position.
func (s *SessionRepositorySuite) correctCount(position int) int {
	a, ok := s.tier.Assignment(position)
	s.Require().True(ok)
	shot, err := sqlite.NewCatalogRepository(s.db).GetScreenshot(context.Background(), a.ScreenshotID)
	s.Require().NoError(err)
	s.Require().NotNil(shot)
	return shot.CorrectCount
}

func (s *SessionRepositorySuite) TestCommitGuess_WrongFloorsAtZero() {
	ctx := context.Background()
	session, ts := s.start("alice")

	res, err := s.guess(session, ts, 2, false, -30)
	s.Require().NoError(err)
	s.Equal(0, res.SessionScore)
	s.Equal(models.PositionInProgress, res.Status)

	p, err := s.repo.GetPosition(ctx, ts.ID, 2)
	s.Require().NoError(err)
	s.Equal(1, p.WrongGuesses)
	s.Equal(models.PositionInProgress, p.Status)

	tierSession, err := s.repo.GetTierSession(ctx, session.ID, s.tier.ID)
	s.Require().NoError(err)
	s.Equal(1, tierSession.WrongCount)
	s.Equal(0, tierSession.Score)
}

func (s *SessionRepositorySuite) TestMovePosition() {
	ctx := context.Background()
	session, ts := s.start("alice")

	err := s.repo.MovePosition(ctx, session.ID, ts.ID, 1,
		models.PreviousStates(models.PositionSkipped), models.PositionSkipped, 2)
	s.Require().NoError(err)

	p, err := s.repo.GetPosition(ctx, ts.ID, 1)
	s.Require().NoError(err)
	s.Equal(models.PositionSkipped, p.Status)

	reloaded, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(2, reloaded.CurrentPosition)

	_, err = s.guess(session, ts, 1, true, 100)
	s.Require().NoError(err)

	err = s.repo.MovePosition(ctx, session.ID, ts.ID, 1,
		models.PreviousStates(models.PositionSkipped), models.PositionSkipped, 2)
	s.ErrorIs(err, repository.ErrPositionCorrect)
}

func (s *SessionRepositorySuite) TestComplete_AppliesUnfoundPenaltyOnce() {
	ctx := context.Background()
	session, ts := s.start("alice")

	_, err := s.guess(session, ts, 1, true, 175)
	s.Require().NoError(err)

	done, err := s.repo.Complete(ctx, session.ID, models.EndForced, 50, s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.True(done)

	reloaded, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.True(reloaded.Completed)
	s.Equal(models.EndForced, reloaded.EndReason)
	s.Equal(2, reloaded.UnfoundCount)
	s.Equal(100, reloaded.UnfoundPenalty)
	s.Equal(75, reloaded.Score)
	s.Require().NotNil(reloaded.CompletedAt)

	done, err = s.repo.Complete(ctx, session.ID, models.EndVoluntary, 50, s.now.Add(2*time.Hour))
	s.Require().NoError(err)
	s.False(done)

	again, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(75, again.Score)
	s.Equal(models.EndForced, again.EndReason)

	tierSession, err := s.repo.GetTierSession(ctx, session.ID, s.tier.ID)
	s.Require().NoError(err)
	s.True(tierSession.Completed)
	s.Equal(75, tierSession.Score)

	_, err = s.guess(session, ts, 2, true, 100)
	s.ErrorIs(err, repository.ErrSessionClosed)
}

func (s *SessionRepositorySuite) TestComplete_FloorsAtZero() {
	ctx := context.Background()
	session, _ := s.start("alice")

	done, err := s.repo.Complete(ctx, session.ID, models.EndVoluntary, 50, s.now)
	s.Require().NoError(err)
	s.True(done)

	reloaded, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(0, reloaded.Score)
	s.Equal(3, reloaded.UnfoundCount)
	s.Equal(150, reloaded.UnfoundPenalty)
}

func (s *SessionRepositorySuite) TestPowerUps() {
	ctx := context.Background()
	session, ts := s.start("alice")

	p, err := s.repo.AwardPowerUp(ctx, ts.ID, models.PowerUpDoubleTimer, 3)
	s.Require().NoError(err)
	s.Require().NotNil(p)
	s.Equal(models.PowerUpDoubleTimer, p.Type)
	s.False(p.Used)

	again, err := s.repo.AwardPowerUp(ctx, ts.ID, models.PowerUpFreeHint, 3)
	s.Require().NoError(err)
	s.Nil(again)

	kind := models.PowerUpDoubleTimer
	a, _ := s.tier.Assignment(1)
	commit := models.GuessCommit{
		SessionID:     session.ID,
		TierSessionID: ts.ID,
		Guess: models.Guess{
			ScreenshotID: a.ScreenshotID, Position: 1, IsCorrect: true,
			TimeTakenMs: 40000, ScoreEarned: 100, PowerUpUsed: &kind, CreatedAt: s.now,
		},
		Delta:          100,
		NextPosition:   2,
		ConsumePowerUp: &kind,
	}
	_, err = s.repo.CommitGuess(ctx, commit)
	s.Require().NoError(err)

	powerUps, err := s.repo.ListPowerUps(ctx, ts.ID)
	s.Require().NoError(err)
	s.Require().Len(powerUps, 1)
	s.True(powerUps[0].Used)
	s.Require().NotNil(powerUps[0].UsedRound)
	s.Equal(1, *powerUps[0].UsedRound)

	guesses, err := s.repo.ListGuesses(ctx, ts.ID)
	s.Require().NoError(err)
	s.Require().Len(guesses, 1)
	s.Require().NotNil(guesses[0].PowerUpUsed)
	s.Equal(models.PowerUpDoubleTimer, *guesses[0].PowerUpUsed)

	commit.Guess.Position = 2
	a2, _ := s.tier.Assignment(2)
	commit.Guess.ScreenshotID = a2.ScreenshotID
	_, err = s.repo.CommitGuess(ctx, commit)
	s.ErrorIs(err, repository.ErrPowerUpUnavailable)

	reloaded, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(100, reloaded.Score)
}

func (s *SessionRepositorySuite) TestRecordHint() {
	ctx := context.Background()
	session, ts := s.start("alice")

	created, err := s.repo.RecordHint(ctx, session.ID, ts.ID, 1, models.HintYear, 10, false)
	s.Require().NoError(err)
	s.True(created)

	created, err = s.repo.RecordHint(ctx, session.ID, ts.ID, 1, models.HintYear, 10, false)
	s.Require().NoError(err)
	s.False(created)

	p, err := s.repo.GetPosition(ctx, ts.ID, 1)
	s.Require().NoError(err)
	s.Equal(10, p.HintDeduction)

	_, err = s.repo.RecordHint(ctx, session.ID, ts.ID, 1, models.HintPublisher, 0, true)
	s.ErrorIs(err, repository.ErrPowerUpUnavailable)

	_, err = s.repo.AwardPowerUp(ctx, ts.ID, models.PowerUpFreeHint, 6)
	s.Require().NoError(err)
	created, err = s.repo.RecordHint(ctx, session.ID, ts.ID, 1, models.HintPublisher, 0, true)
	s.Require().NoError(err)
	s.True(created)

	p, err = s.repo.GetPosition(ctx, ts.ID, 1)
	s.Require().NoError(err)
	s.Equal(10, p.HintDeduction)

	res, err := s.guess(session, ts, 1, true, 165)
	s.Require().NoError(err)
	s.Equal(10, res.HintDeduction)
	s.Equal(155, res.ScoreEarned)
	s.Equal(155, res.SessionScore)
	_, err = s.repo.RecordHint(ctx, session.ID, ts.ID, 1, models.HintDeveloper, 20, false)
	s.ErrorIs(err, repository.ErrPositionCorrect)
}

func (s *SessionRepositorySuite) TestListOpenBefore() {
	ctx := context.Background()
	alice, _ := s.start("alice")
	bob, _ := s.start("bob")

	_, err := s.repo.Complete(ctx, bob.ID, models.EndVoluntary, 50, s.now)
	s.Require().NoError(err)

	open, err := s.repo.ListOpenBefore(ctx, "2026-01-16")
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Equal(alice.ID, open[0].ID)

	open, err = s.repo.ListOpenBefore(ctx, "2026-01-15")
	s.Require().NoError(err)
	s.Empty(open)
}

func TestSessionRepositorySuite(t *testing.T) {
	suite.Run(t, new(SessionRepositorySuite))
}
