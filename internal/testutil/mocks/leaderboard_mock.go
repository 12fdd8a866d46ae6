package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/dailyshot/internal/models"
)

// MockLeaderboardService is a mock implementation of services.LeaderboardService
type MockLeaderboardService struct {
	mock.Mock
}

func (m *MockLeaderboardService) Record(ctx context.Context, entry models.LeaderboardEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLeaderboardService) Rank(ctx context.Context, userID, date string) (*int, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

func (m *MockLeaderboardService) Top(ctx context.Context, date string, limit int) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx, date, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}
