// Package rotation opens each day's challenge and force-closes sessions left
// open against earlier days.
package rotation

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
	"github.com/vytor/dailyshot/internal/services"
)

// SweepFailure is one session that could not be closed.
type SweepFailure struct {
	SessionID int64  `json:"session_id"`
	UserID    string `json:"user_id"`
	Error     string `json:"error"`
}

// SweepReport summarizes one rotation run.
type SweepReport struct {
	Date                  string         `json:"date"`
	ChallengeCreated      bool           `json:"challenge_created"`
	ChallengeID           int64          `json:"challenge_id,omitempty"`
	GeneratorError        string         `json:"generator_error,omitempty"`
	ChallengesDeactivated int64          `json:"challenges_deactivated"`
	ForcedClosed          int            `json:"forced_closed"`
	AlreadyClosed         int            `json:"already_closed"`
	Failures              []SweepFailure `json:"failures"`
}

// Options tune the sweep.
type Options struct {
	Concurrency    int
	SessionTimeout time.Duration
}

// Sweeper runs the daily rotation. It is safe to run more than once per day.
type Sweeper struct {
	challenges    services.ChallengeService
	sessions      services.SessionService
	sessionRepo   repository.SessionRepository
	challengeRepo repository.ChallengeRepository
	opts          Options
}

func NewSweeper(
	challenges services.ChallengeService,
	sessions services.SessionService,
	sessionRepo repository.SessionRepository,
	challengeRepo repository.ChallengeRepository,
	opts Options,
) *Sweeper {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = 10 * time.Second
	}
	return &Sweeper{
		challenges:    challenges,
		sessions:      sessions,
		sessionRepo:   sessionRepo,
		challengeRepo: challengeRepo,
		opts:          opts,
	}
}

// Run generates the challenge for now's UTC date and closes every open
// session from an earlier date. A generator failure is recorded and does not
// stop the sweep. The only error returned is failing to list open sessions.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (*SweepReport, error) {
	date := models.ChallengeDate(now)
	log := logger.FromContext(ctx).WithPrefix("rotation").WithField("date", date)
	log.Info("rotation started")

	report := &SweepReport{Date: date, Failures: []SweepFailure{}}

	created, err := s.challenges.CreateDailyChallenge(ctx, date)
	if err != nil {
		log.Error("challenge generation failed: %v", err)
		report.GeneratorError = err.Error()
	} else {
		report.ChallengeCreated = created.Created
		report.ChallengeID = created.ChallengeID
	}

	open, err := s.sessionRepo.ListOpenBefore(ctx, date)
	if err != nil {
		log.Error("failed to list open sessions: %v", err)
		return report, err
	}
	log.Info("found %d stale sessions to close", len(open))

	s.closeAll(ctx, open, report)

	n, err := s.challengeRepo.DeactivateBefore(ctx, date)
	if err != nil {
		log.Error("failed to deactivate old challenges: %v", err)
	}
	report.ChallengesDeactivated = n

	log.Info("rotation finished: created=%v, forced_closed=%d, already_closed=%d, failures=%d",
		report.ChallengeCreated, report.ForcedClosed, report.AlreadyClosed, len(report.Failures))
	return report, nil
}

// closeAll ends every session as an independent unit of work. Tasks never
// return an error so one failure cannot cancel its siblings, and each close
// runs on a context detached from the caller's cancellation.
func (s *Sweeper) closeAll(ctx context.Context, open []models.GameSession, report *SweepReport) {
	log := logger.FromContext(ctx)
	base := context.WithoutCancel(ctx)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)

	for _, session := range open {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(base, s.opts.SessionTimeout)
			defer cancel()

			summary, err := s.sessions.EndSession(sctx, session.ID, models.EndForced)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				log.WithError(err).Warn("failed to close session: id=%d, user=%s", session.ID, session.UserID)
				report.Failures = append(report.Failures, SweepFailure{
					SessionID: session.ID,
					UserID:    session.UserID,
					Error:     err.Error(),
				})
			case summary.AlreadyCompleted:
				report.AlreadyClosed++
			default:
				report.ForcedClosed++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].SessionID < report.Failures[j].SessionID
	})
}
