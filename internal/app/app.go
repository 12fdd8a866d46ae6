// Package app assembles repositories, services and background workers from
// configuration. Both binaries share it.
package app

import (
	"context"
	"time"

	"github.com/vytor/dailyshot/internal/config"
	"github.com/vytor/dailyshot/internal/db"
	"github.com/vytor/dailyshot/internal/jobs"
	"github.com/vytor/dailyshot/internal/matcher"
	"github.com/vytor/dailyshot/internal/repository"
	"github.com/vytor/dailyshot/internal/repository/sqlite"
	"github.com/vytor/dailyshot/internal/rotation"
	"github.com/vytor/dailyshot/internal/services"
	"github.com/vytor/dailyshot/internal/worker"
)

// App is the wired engine.
type App struct {
	DB *db.DB

	CatalogRepo repository.CatalogRepository

	Challenges   services.ChallengeService
	Sessions     services.SessionService
	Leaderboard  services.LeaderboardService
	Achievements services.AchievementService
	Sweeper      *rotation.Sweeper

	// AchievementPool is nil when evaluations run inline.
	AchievementPool *worker.Pool
}

// New wires the engine. With inlineAchievements set, evaluations run on the
// caller's goroutine instead of a worker pool, which suits one-shot commands.
func New(cfg config.Config, database *db.DB, inlineAchievements bool) *App {
	catalogRepo := sqlite.NewCatalogRepository(database.DB)
	challengeRepo := sqlite.NewChallengeRepository(database.DB)
	sessionRepo := sqlite.NewSessionRepository(database.DB)
	statsRepo := sqlite.NewStatsRepository(database.DB)
	achievementRepo := sqlite.NewAchievementRepository(database.DB)
	leaderboardRepo := sqlite.NewLeaderboardRepository(database.DB)

	a := &App{DB: database, CatalogRepo: catalogRepo}

	a.Leaderboard = services.NewLeaderboardService(leaderboardRepo)
	a.Achievements = services.NewAchievementService(achievementRepo, sessionRepo, statsRepo, a.Leaderboard, time.Now)
	a.Challenges = services.NewChallengeService(challengeRepo, catalogRepo, services.ChallengeSettings{
		ScreenshotsPerChallenge: cfg.ScreenshotsPerChallenge,
		MinQuality:              cfg.MinScreenshotQuality,
		TimeLimitSeconds:        cfg.TierTimeLimitSeconds,
		FinalBonusPercent:       cfg.FinalBonusPercent,
	}, time.Now)

	var queue jobs.JobQueue
	if inlineAchievements {
		queue = jobs.SyncQueue{Evaluator: a.Achievements}
	} else {
		a.AchievementPool = worker.NewPool(cfg.AchievementWorkerCount, cfg.AchievementQueueSize)
		queue = jobs.NewWorkerQueue(a.AchievementPool, a.Achievements)
	}

	a.Sessions = services.NewSessionService(
		sessionRepo, challengeRepo, catalogRepo, statsRepo,
		a.Challenges, a.Leaderboard, matcher.NewCatalogMatcher(catalogRepo), queue,
		services.SessionSettings{
			Rules:           cfg.ScoringRules(),
			BonusRoundEvery: cfg.BonusRoundEvery,
			Now:             time.Now,
		},
	)
	a.Sweeper = rotation.NewSweeper(a.Challenges, a.Sessions, sessionRepo, challengeRepo, rotation.Options{
		Concurrency:    cfg.SweepConcurrency,
		SessionTimeout: cfg.SweepSessionTimeout,
	})
	return a
}

// Start launches background workers.
func (a *App) Start(ctx context.Context) {
	if a.AchievementPool != nil {
		a.AchievementPool.Start(ctx)
	}
}

// Stop drains background workers.
func (a *App) Stop() {
	if a.AchievementPool != nil {
		a.AchievementPool.Stop()
	}
}
