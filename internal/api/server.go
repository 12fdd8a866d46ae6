package api

import (
	"context"
	"time"

	"github.com/vytor/dailyshot/internal/rotation"
	"github.com/vytor/dailyshot/internal/services"
)

// Rotator runs one rotation sweep on demand.
type Rotator interface {
	Run(ctx context.Context, now time.Time) (*rotation.SweepReport, error)
}

// Pinger reports storage readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	ChallengeService   services.ChallengeService
	SessionService     services.SessionService
	LeaderboardService services.LeaderboardService
	AchievementService services.AchievementService
	Rotator            Rotator
	DB                 Pinger
	Now                func() time.Time
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
