package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/dailyshot/internal/api"
	"github.com/vytor/dailyshot/internal/app"
	"github.com/vytor/dailyshot/internal/catalog"
	"github.com/vytor/dailyshot/internal/config"
	"github.com/vytor/dailyshot/internal/db"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/scheduler"
)

const rotationTask = "rotation"

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("DailyShot Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("screenshots_per_challenge=%d", cfg.ScreenshotsPerChallenge)
	log.Debug("min_screenshot_quality=%d", cfg.MinScreenshotQuality)
	log.Debug("unfound_penalty=%d", cfg.UnfoundPenalty)
	log.Debug("rotation_schedule=%q", cfg.RotationSchedule)
	log.Debug("sweep_concurrency=%d", cfg.SweepConcurrency)
	log.Debug("achievement_worker_count=%d", cfg.AchievementWorkerCount)
	log.Debug("achievement_queue_size=%d", cfg.AchievementQueueSize)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	ctx, cancel := context.WithCancel(logger.NewContext(context.Background(), log))

	engine := app.New(cfg, database, false)
	if cfg.CatalogFile != "" {
		if _, err := catalog.LoadFile(ctx, engine.CatalogRepo, cfg.CatalogFile); err != nil {
			log.Error("failed to load catalog: %v", err)
			os.Exit(1)
		}
	}
	engine.Start(ctx)

	// A missed midnight is recovered by sweeping once at startup.
	if _, err := engine.Sweeper.Run(ctx, time.Now()); err != nil {
		log.Error("startup rotation failed: %v", err)
	}

	sched := scheduler.New(log)
	if err := sched.Register(rotationTask, cfg.RotationSchedule, func(ctx context.Context) error {
		_, err := engine.Sweeper.Run(ctx, time.Now())
		return err
	}); err != nil {
		log.Error("failed to schedule rotation: %v", err)
		os.Exit(1)
	}
	for _, name := range cfg.DisabledTasks {
		if !sched.Cancel(name) {
			log.Warn("disabled task not registered: %s", name)
		}
	}
	sched.Start(ctx)

	srv := &api.Server{
		ChallengeService:   engine.Challenges,
		SessionService:     engine.Sessions,
		LeaderboardService: engine.Leaderboard,
		AchievementService: engine.Achievements,
		Rotator:            engine.Sweeper,
		DB:                 database,
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping scheduler")
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("scheduler shutdown error: %v", err)
	}

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping achievement pool")
	engine.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("DailyShot Server Stopped")
	log.Info("===========================================")
}
