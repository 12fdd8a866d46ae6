package jobs

import (
	"context"

	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	achievementPool *worker.Pool
	evaluator       worker.AchievementEvaluator
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(achievementPool *worker.Pool, evaluator worker.AchievementEvaluator) JobQueue {
	return &WorkerQueue{
		achievementPool: achievementPool,
		evaluator:       evaluator,
	}
}

// EnqueueAchievementEvaluation never blocks the caller: a full queue is
// reported as an error and the evaluation is dropped.
func (q *WorkerQueue) EnqueueAchievementEvaluation(ctx context.Context, req models.EvaluationRequest) error {
	err := q.achievementPool.TrySubmit(&worker.EvaluateAchievementsJob{
		Evaluator: q.evaluator,
		Request:   req,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("achievement evaluation not queued: user=%s, trigger=%s, err=%v",
			req.UserID, req.Trigger, err)
	}
	return err
}

// SyncQueue runs evaluations inline. The CLI uses it where no pool is running.
type SyncQueue struct {
	Evaluator worker.AchievementEvaluator
}

func (q SyncQueue) EnqueueAchievementEvaluation(ctx context.Context, req models.EvaluationRequest) error {
	job := &worker.EvaluateAchievementsJob{Evaluator: q.Evaluator, Request: req}
	return job.Run(ctx)
}
