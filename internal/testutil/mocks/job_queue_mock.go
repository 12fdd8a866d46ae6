package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/dailyshot/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueAchievementEvaluation(ctx context.Context, req models.EvaluationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
