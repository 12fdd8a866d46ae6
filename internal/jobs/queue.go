package jobs

import (
	"context"

	"github.com/vytor/dailyshot/internal/models"
)

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueAchievementEvaluation(ctx context.Context, req models.EvaluationRequest) error
}
