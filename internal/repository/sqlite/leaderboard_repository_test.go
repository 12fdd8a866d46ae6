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

type LeaderboardRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.LeaderboardRepository
}

func (s *LeaderboardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewLeaderboardRepository(s.db)
}

func (s *LeaderboardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *LeaderboardRepositorySuite) record(user string, score int, at time.Time) {
	s.Require().NoError(s.repo.Upsert(context.Background(), models.LeaderboardEntry{
		UserID: user, Date: "2026-01-15", TotalScore: score, RecordedAt: at,
	}))
}

func (s *LeaderboardRepositorySuite) TestRankAndTop() {
	ctx := context.Background()
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	s.record("alice", 900, base)
	s.record("bob", 1200, base.Add(time.Minute))
	s.record("carol", 900, base.Add(2*time.Minute))
	s.record("dave", 300, base.Add(3*time.Minute))

	rank, err := s.repo.Rank(ctx, "bob", "2026-01-15")
	s.Require().NoError(err)
	s.Require().NotNil(rank)
	s.Equal(1, *rank)

	rank, err = s.repo.Rank(ctx, "carol", "2026-01-15")
	s.Require().NoError(err)
	s.Equal(2, *rank)

	rank, err = s.repo.Rank(ctx, "dave", "2026-01-15")
	s.Require().NoError(err)
	s.Equal(4, *rank)

	rank, err = s.repo.Rank(ctx, "erin", "2026-01-15")
	s.Require().NoError(err)
	s.Nil(rank)

	top, err := s.repo.Top(ctx, "2026-01-15", 3)
	s.Require().NoError(err)
	s.Require().Len(top, 3)
	s.Equal("bob", top[0].UserID)
	s.Equal(1, top[0].Rank)
	s.Equal("alice", top[1].UserID)
	s.Equal(2, top[1].Rank)
	s.Equal("carol", top[2].UserID)
	s.Equal(2, top[2].Rank)
}

func (s *LeaderboardRepositorySuite) TestUpsertReplacesScore() {
	ctx := context.Background()
	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	s.record("alice", 100, at)
	s.record("alice", 700, at.Add(time.Minute))

	top, err := s.repo.Top(ctx, "2026-01-15", 10)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(700, top[0].TotalScore)
}

func TestLeaderboardRepositorySuite(t *testing.T) {
	suite.Run(t, new(LeaderboardRepositorySuite))
}
