package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
	"github.com/vytor/dailyshot/internal/repository/sqlite"
	"github.com/vytor/dailyshot/internal/testutil"
)

type ChallengeRepositorySuite struct {
	suite.Suite
	db    *sql.DB
	repo  repository.ChallengeRepository
	shots []int64
}

func (s *ChallengeRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewChallengeRepository(s.db)
	s.shots = testutil.SeedCatalog(s.T(), s.db, 3, 80)
}

func (s *ChallengeRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ChallengeRepositorySuite) newChallenge(date string) models.NewChallenge {
	return models.NewChallenge{
		Date:             date,
		TierNumber:       1,
		TimeLimitSeconds: 30,
		ScreenshotIDs:    s.shots,
	}
}

func (s *ChallengeRepositorySuite) TestCreateAndRead() {
	ctx := context.Background()

	id, err := s.repo.Create(ctx, s.newChallenge("2026-01-15"))
	s.Require().NoError(err)
	s.NotZero(id)

	c, err := s.repo.GetByDate(ctx, "2026-01-15")
	s.Require().NoError(err)
	s.Require().NotNil(c)
	s.Equal(id, c.ID)
	s.True(c.IsActive)

	tiers, err := s.repo.ListTiers(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(tiers, 1)
	s.Equal(1, tiers[0].TierNumber)
	s.Equal(30, tiers[0].TimeLimitSeconds)
	s.Require().Equal(3, tiers[0].Size())
	for i, a := range tiers[0].Assignments {
		s.Equal(i+1, a.Position)
		s.Equal(s.shots[i], a.ScreenshotID)
		s.Nil(a.BonusPercent)
	}

	tier, err := s.repo.GetTier(ctx, tiers[0].ID)
	s.Require().NoError(err)
	s.Require().NotNil(tier)
	s.Equal(tiers[0].Assignments, tier.Assignments)
}

func (s *ChallengeRepositorySuite) TestCreate_FinalBonus() {
	ctx := context.Background()
	c := s.newChallenge("2026-01-15")
	c.FinalBonusPercent = 150

	id, err := s.repo.Create(ctx, c)
	s.Require().NoError(err)

	tiers, err := s.repo.ListTiers(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(tiers, 1)

	first, ok := tiers[0].Assignment(1)
	s.Require().True(ok)
	s.Nil(first.BonusPercent)

	last, ok := tiers[0].Assignment(3)
	s.Require().True(ok)
	s.Require().NotNil(last.BonusPercent)
	s.Equal(150, *last.BonusPercent)
}

func (s *ChallengeRepositorySuite) TestCreateDuplicateDate() {
	ctx := context.Background()

	_, err := s.repo.Create(ctx, s.newChallenge("2026-01-15"))
	s.Require().NoError(err)

	_, err = s.repo.Create(ctx, s.newChallenge("2026-01-15"))
	s.ErrorIs(err, repository.ErrDuplicate)

	var challenges, tiers, assignments int
	s.Require().NoError(s.db.QueryRow(`SELECT COUNT(*) FROM daily_challenges`).Scan(&challenges))
	s.Require().NoError(s.db.QueryRow(`SELECT COUNT(*) FROM tiers`).Scan(&tiers))
	s.Require().NoError(s.db.QueryRow(`SELECT COUNT(*) FROM tier_screenshots`).Scan(&assignments))
	s.Equal(1, challenges)
	s.Equal(1, tiers)
	s.Equal(3, assignments)
}

func (s *ChallengeRepositorySuite) TestNotFound() {
	ctx := context.Background()

	c, err := s.repo.GetByDate(ctx, "1999-01-01")
	s.NoError(err)
	s.Nil(c)

	c, err = s.repo.Get(ctx, 404)
	s.NoError(err)
	s.Nil(c)

	tier, err := s.repo.GetTier(ctx, 404)
	s.NoError(err)
	s.Nil(tier)
}

func (s *ChallengeRepositorySuite) TestDeactivateBefore() {
	ctx := context.Background()

	for _, date := range []string{"2026-01-13", "2026-01-14", "2026-01-15"} {
		_, err := s.repo.Create(ctx, s.newChallenge(date))
		s.Require().NoError(err)
	}

	n, err := s.repo.DeactivateBefore(ctx, "2026-01-15")
	s.Require().NoError(err)
	s.EqualValues(2, n)

	old, err := s.repo.GetByDate(ctx, "2026-01-14")
	s.Require().NoError(err)
	s.False(old.IsActive)

	today, err := s.repo.GetByDate(ctx, "2026-01-15")
	s.Require().NoError(err)
	s.True(today.IsActive)
}

func TestChallengeRepositorySuite(t *testing.T) {
	suite.Run(t, new(ChallengeRepositorySuite))
}
