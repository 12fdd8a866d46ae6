// Package scheduler runs named recurring tasks on cron expressions in UTC.
// Tasks can be listed, cancelled by name and triggered on demand while the
// scheduler is running.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vytor/dailyshot/internal/logger"
)

var (
	ErrUnknownTask   = errors.New("unknown task")
	ErrDuplicateTask = errors.New("task already registered")
)

// TaskFunc is one run of a scheduled task.
type TaskFunc func(ctx context.Context) error

type task struct {
	name  string
	spec  string
	entry cron.EntryID
	fn    TaskFunc
}

// Scheduler wraps a cron runner with a name index.
type Scheduler struct {
	mu    sync.Mutex
	cron  *cron.Cron
	tasks map[string]*task
	ctx   context.Context
	log   *logger.Logger
}

// New creates a scheduler evaluating specs in UTC. Overlapping runs of the
// same task are skipped.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	log = log.WithPrefix("scheduler")
	adapter := cronLogger{log: log}

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		tasks: make(map[string]*task),
		ctx:   context.Background(),
		log:   log,
	}
}

// Register adds a task under a unique name.
func (s *Scheduler) Register(name, spec string, fn TaskFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}

	t := &task{name: name, spec: spec, fn: fn}
	id, err := s.cron.AddFunc(spec, func() { s.run(t) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for task %s: %w", spec, name, err)
	}
	t.entry = id
	s.tasks[name] = t

	s.log.Info("task registered: name=%s, spec=%q", name, spec)
	return nil
}

// Cancel removes a task. It reports whether the task existed.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[name]
	if !ok {
		return false
	}
	s.cron.Remove(t.entry)
	delete(s.tasks, name)

	s.log.Info("task cancelled: name=%s", name)
	return true
}

// Names lists registered tasks in name order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next returns the next scheduled run of a task, zero before Start.
func (s *Scheduler) Next(name string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[name]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.cron.Entry(t.entry).Next, nil
}

// RunNow runs a task synchronously on ctx, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	s.log.Info("running task now: name=%s", name)
	return t.fn(ctx)
}

// Start begins firing tasks. Scheduled runs use ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info("scheduler started: tasks=%s", strings.Join(s.Names(), ","))
}

// Stop prevents new runs and waits for running ones until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(t *task) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	start := time.Now()
	s.log.Debug("task started: name=%s", t.name)
	if err := t.fn(ctx); err != nil {
		s.log.WithError(err).Error("task failed: name=%s, duration=%v", t.name, time.Since(start))
		return
	}
	s.log.Info("task finished: name=%s, duration=%v", t.name, time.Since(start))
}

// cronLogger adapts our logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("%s %s", msg, formatKV(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error("%s %s: %v", msg, formatKV(keysAndValues), err)
}

func formatKV(kv []interface{}) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
