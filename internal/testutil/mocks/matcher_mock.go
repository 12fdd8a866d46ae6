package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/dailyshot/internal/matcher"
	"github.com/vytor/dailyshot/internal/models"
)

// MockMatcher is a mock implementation of matcher.Matcher
type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) IsMatch(ctx context.Context, candidate matcher.Candidate, shot models.Screenshot) (bool, error) {
	args := m.Called(ctx, candidate, shot)
	return args.Bool(0), args.Error(1)
}
