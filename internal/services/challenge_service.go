package services

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand/v2"
	"time"

	apperrors "github.com/vytor/dailyshot/internal/errors"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
)

// ChallengeService assembles and serves daily challenges
type ChallengeService interface {
	CreateDailyChallengeForToday(ctx context.Context) (*models.CreateChallengeResult, error)
	CreateDailyChallenge(ctx context.Context, date string) (*models.CreateChallengeResult, error)
	// GetToday returns today's challenge, creating it when the rotation has
	// not run yet.
	GetToday(ctx context.Context) (*models.ChallengeView, error)
	GetByDate(ctx context.Context, date string) (*models.ChallengeView, error)
}

// ChallengeSettings are the generator's tunables.
type ChallengeSettings struct {
	ScreenshotsPerChallenge int
	MinQuality              int
	TimeLimitSeconds        int

	// FinalBonusPercent makes the last screenshot of the day worth more,
	// e.g. 150 for 1.5x. Zero leaves every position at face value.
	FinalBonusPercent int
}

type challengeService struct {
	challengeRepo repository.ChallengeRepository
	catalogRepo   repository.CatalogRepository
	settings      ChallengeSettings
	now           func() time.Time
}

// NewChallengeService creates a new ChallengeService. now defaults to time.Now.
func NewChallengeService(challengeRepo repository.ChallengeRepository, catalogRepo repository.CatalogRepository, settings ChallengeSettings, now func() time.Time) ChallengeService {
	if now == nil {
		now = time.Now
	}
	return &challengeService{
		challengeRepo: challengeRepo,
		catalogRepo:   catalogRepo,
		settings:      settings,
		now:           now,
	}
}

func (s *challengeService) CreateDailyChallengeForToday(ctx context.Context) (*models.CreateChallengeResult, error) {
	return s.CreateDailyChallenge(ctx, models.ChallengeDate(s.now()))
}

func (s *challengeService) CreateDailyChallenge(ctx context.Context, date string) (*models.CreateChallengeResult, error) {
	log := logger.FromContext(ctx).WithPrefix("challenge_service").WithField("date", date)
	log.Debug("creating daily challenge")

	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, apperrors.NewValidationError("date", "must be YYYY-MM-DD")
	}

	if existing, err := s.existing(ctx, date); err != nil || existing != nil {
		return existing, err
	}

	pool, err := s.catalogRepo.ListEligibleScreenshots(ctx, s.settings.MinQuality)
	if err != nil {
		log.Error("failed to list eligible screenshots: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if len(pool) == 0 {
		log.Error("no eligible screenshots: min_quality=%d", s.settings.MinQuality)
		return nil, apperrors.NewNoEligibleScreenshotsError(s.settings.MinQuality)
	}

	ids, degraded := selectScreenshots(pool, s.settings.ScreenshotsPerChallenge, date)
	if degraded {
		log.Warn("degraded selection: eligible=%d, required=%d, screenshots will repeat",
			len(pool), s.settings.ScreenshotsPerChallenge)
	}

	challengeID, err := s.challengeRepo.Create(ctx, models.NewChallenge{
		Date:              date,
		TierNumber:        1,
		TimeLimitSeconds:  s.settings.TimeLimitSeconds,
		ScreenshotIDs:     ids,
		FinalBonusPercent: s.settings.FinalBonusPercent,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		log.Debug("challenge created concurrently, reading it back")
		existing, err := s.existing(ctx, date)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperrors.NewInternalError(errors.New("duplicate challenge vanished"))
		}
		return existing, nil
	}
	if err != nil {
		log.Error("failed to create challenge: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	for _, id := range ids {
		if err := s.catalogRepo.IncrementUsage(ctx, id); err != nil {
			log.Error("failed to increment usage: screenshot_id=%d, err=%v", id, err)
		}
	}

	log.Info("daily challenge created: id=%d, screenshots=%d", challengeID, len(ids))
	return &models.CreateChallengeResult{
		Created:             true,
		ChallengeID:         challengeID,
		Date:                date,
		ScreenshotsAssigned: len(ids),
		Degraded:            degraded,
	}, nil
}

// existing returns a created=false result for date, or nil when there is no
// challenge yet.
func (s *challengeService) existing(ctx context.Context, date string) (*models.CreateChallengeResult, error) {
	c, err := s.challengeRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if c == nil {
		return nil, nil
	}
	tiers, err := s.challengeRepo.ListTiers(ctx, c.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	assigned := 0
	for _, t := range tiers {
		assigned += t.Size()
	}
	return &models.CreateChallengeResult{
		Created:             false,
		ChallengeID:         c.ID,
		Date:                date,
		ScreenshotsAssigned: assigned,
	}, nil
}

// selectScreenshots draws n ids uniformly at random. The draw is seeded by
// date so a retried generation picks the same set. A pool smaller than n is
// used in full and topped up with repeats.
func selectScreenshots(pool []models.ScreenshotRef, n int, date string) ([]int64, bool) {
	h := fnv.New64a()
	h.Write([]byte(date))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	ids := make([]int64, 0, n)
	for _, i := range rng.Perm(len(pool)) {
		if len(ids) == n {
			return ids, false
		}
		ids = append(ids, pool[i].ID)
	}
	if len(ids) == n {
		return ids, false
	}
	for len(ids) < n {
		ids = append(ids, pool[rng.IntN(len(pool))].ID)
	}
	return ids, true
}

func (s *challengeService) GetToday(ctx context.Context) (*models.ChallengeView, error) {
	date := models.ChallengeDate(s.now())
	view, err := s.GetByDate(ctx, date)
	if err == nil {
		return view, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	logger.FromContext(ctx).Info("no challenge for %s yet, generating", date)
	if _, err := s.CreateDailyChallenge(ctx, date); err != nil {
		return nil, err
	}
	return s.GetByDate(ctx, date)
}

func (s *challengeService) GetByDate(ctx context.Context, date string) (*models.ChallengeView, error) {
	log := logger.FromContext(ctx)

	c, err := s.challengeRepo.GetByDate(ctx, date)
	if err != nil {
		log.Error("failed to get challenge: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if c == nil {
		return nil, apperrors.NewNotFoundError("challenge", date)
	}

	tiers, err := s.challengeRepo.ListTiers(ctx, c.ID)
	if err != nil {
		log.Error("failed to list tiers: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return &models.ChallengeView{Challenge: *c, Tiers: tiers}, nil
}
