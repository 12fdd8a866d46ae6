package worker

import (
	"context"

	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
)

// AchievementEvaluator is the slice of the achievement service the worker needs.
type AchievementEvaluator interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationReport, error)
}

// EvaluateAchievementsJob runs one achievement evaluation off the request path.
type EvaluateAchievementsJob struct {
	Evaluator AchievementEvaluator
	Request   models.EvaluationRequest
}

func (j *EvaluateAchievementsJob) Name() string { return "evaluate_achievements" }

func (j *EvaluateAchievementsJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user_id": j.Request.UserID,
		"trigger": string(j.Request.Trigger),
	})

	report, err := j.Evaluator.Evaluate(ctx, j.Request)
	if err != nil {
		return err
	}
	for _, f := range report.Failures {
		log.Warn("criterion failed: achievement=%s, err=%s", f.AchievementKey, f.Message)
	}
	log.Info("achievements evaluated: awarded=%d, progressed=%d, failures=%d",
		len(report.Awarded), len(report.Progressed), len(report.Failures))
	return nil
}
