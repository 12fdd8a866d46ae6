package services

import (
	"context"
	"time"

	apperrors "github.com/vytor/dailyshot/internal/errors"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// LeaderboardService records final session scores and ranks players per day
type LeaderboardService interface {
	Record(ctx context.Context, entry models.LeaderboardEntry) error
	Rank(ctx context.Context, userID, date string) (*int, error)
	Top(ctx context.Context, date string, limit int) ([]models.LeaderboardEntry, error)
}

type leaderboardService struct {
	repo repository.LeaderboardRepository
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(repo repository.LeaderboardRepository) LeaderboardService {
	return &leaderboardService{repo: repo}
}

func (s *leaderboardService) Record(ctx context.Context, entry models.LeaderboardEntry) error {
	log := logger.FromContext(ctx)
	log.Debug("recording leaderboard entry: user=%s, date=%s, score=%d", entry.UserID, entry.Date, entry.TotalScore)

	if entry.UserID == "" {
		return apperrors.NewValidationError("user_id", "cannot be empty")
	}
	if _, err := time.Parse(models.DateLayout, entry.Date); err != nil {
		return apperrors.NewValidationError("date", "must be YYYY-MM-DD")
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	if err := s.repo.Upsert(ctx, entry); err != nil {
		log.Error("failed to record leaderboard entry: %v", err)
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *leaderboardService) Rank(ctx context.Context, userID, date string) (*int, error) {
	rank, err := s.repo.Rank(ctx, userID, date)
	if err != nil {
		logger.FromContext(ctx).Error("failed to rank user: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return rank, nil
}

func (s *leaderboardService) Top(ctx context.Context, date string, limit int) ([]models.LeaderboardEntry, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, apperrors.NewValidationError("date", "must be YYYY-MM-DD")
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.repo.Top(ctx, date, limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list leaderboard: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}
