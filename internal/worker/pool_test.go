package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/worker"
)

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestPool_RunsJobs(t *testing.T) {
	pool := worker.NewPool(2, 8)
	pool.Start(context.Background())

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(context.Background(), funcJob{name: "count", fn: func(context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}}))
	}
	wg.Wait()
	pool.Stop()

	assert.EqualValues(t, 5, ran.Load())
}

func TestPool_SurvivesPanicsAndErrors(t *testing.T) {
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())

	done := make(chan struct{})
	require.NoError(t, pool.Submit(context.Background(), funcJob{name: "panic", fn: func(context.Context) error {
		panic("boom")
	}}))
	require.NoError(t, pool.Submit(context.Background(), funcJob{name: "fail", fn: func(context.Context) error {
		return errors.New("nope")
	}}))
	require.NoError(t, pool.Submit(context.Background(), funcJob{name: "ok", fn: func(context.Context) error {
		close(done)
		return nil
	}}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}
	pool.Stop()
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()

	err := pool.Submit(context.Background(), funcJob{name: "late", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, worker.ErrPoolStopped)
	assert.ErrorIs(t, pool.TrySubmit(funcJob{name: "late"}), worker.ErrPoolStopped)
}

func TestPool_SubmitRespectsContext(t *testing.T) {
	// Not started, so the single slot stays occupied.
	pool := worker.NewPool(1, 1)
	noop := funcJob{name: "noop", fn: func(context.Context) error { return nil }}
	require.NoError(t, pool.Submit(context.Background(), noop))
	assert.ErrorIs(t, pool.TrySubmit(noop), worker.ErrQueueFull)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Submit(ctx, noop)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, pool.QueueSize())
}

type stubEvaluator struct {
	got    models.EvaluationRequest
	report *models.EvaluationReport
	err    error
}

func (s *stubEvaluator) Evaluate(_ context.Context, req models.EvaluationRequest) (*models.EvaluationReport, error) {
	s.got = req
	return s.report, s.err
}

func TestEvaluateAchievementsJob(t *testing.T) {
	req := models.EvaluationRequest{UserID: "alice", SessionID: 4, Date: "2026-01-15", Trigger: models.TriggerSessionEnd}
	eval := &stubEvaluator{report: &models.EvaluationReport{
		UserID:   "alice",
		Failures: []models.CriterionFailure{{AchievementKey: "broken", Message: "unknown kind"}},
	}}
	job := &worker.EvaluateAchievementsJob{Evaluator: eval, Request: req}

	assert.Equal(t, "evaluate_achievements", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, req, eval.got)

	eval.err = errors.New("db down")
	eval.report = nil
	assert.Error(t, job.Run(context.Background()))
}
