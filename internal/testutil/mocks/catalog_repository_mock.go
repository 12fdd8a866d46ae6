package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/dailyshot/internal/models"
)

// MockCatalogRepository is a mock implementation of repository.CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListEligibleScreenshots(ctx context.Context, minQuality int) ([]models.ScreenshotRef, error) {
	args := m.Called(ctx, minQuality)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScreenshotRef), args.Error(1)
}

func (m *MockCatalogRepository) IncrementUsage(ctx context.Context, screenshotID int64) error {
	args := m.Called(ctx, screenshotID)
	return args.Error(0)
}

func (m *MockCatalogRepository) GetScreenshot(ctx context.Context, id int64) (*models.Screenshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Screenshot), args.Error(1)
}

func (m *MockCatalogRepository) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockCatalogRepository) ListAliases(ctx context.Context, gameID int64) ([]string, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCatalogRepository) UpsertGame(ctx context.Context, game models.Game, aliases []string) (int64, error) {
	args := m.Called(ctx, game, aliases)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalogRepository) UpsertScreenshot(ctx context.Context, shot models.Screenshot) (int64, error) {
	args := m.Called(ctx, shot)
	return args.Get(0).(int64), args.Error(1)
}
