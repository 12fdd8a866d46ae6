package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/scoring"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	// Challenge generation
	ScreenshotsPerChallenge int
	MinScreenshotQuality    int
	TierTimeLimitSeconds    int
	FinalBonusPercent       int // 0 disables the last-position bonus
	CatalogFile             string

	// Scoring
	BaseScore            int
	MaxScore             int
	WrongGuessPenalty    int
	UnfoundPenalty       int
	HintPenaltyYear      int
	HintPenaltyPublisher int
	HintPenaltyDeveloper int
	BonusRoundEvery      int

	// Rotation
	RotationSchedule    string
	SweepConcurrency    int
	SweepSessionTimeout time.Duration
	DisabledTasks       []string

	// Achievements
	AchievementWorkerCount int
	AchievementQueueSize   int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                    envOr("ADDR", ":8080"),
		DBPath:                  envOr("DB_PATH", "file:dailyshot.db"),
		LogLevel:                envOr("LOG_LEVEL", "INFO"),
		ScreenshotsPerChallenge: envIntOr("SCREENSHOTS_PER_CHALLENGE", 10),
		MinScreenshotQuality:    envIntOr("MIN_SCREENSHOT_QUALITY", 70),
		TierTimeLimitSeconds:    envIntOr("TIER_TIME_LIMIT_SECONDS", 30),
		FinalBonusPercent:       envIntOr("FINAL_BONUS_PERCENT", 150),
		CatalogFile:             envOr("CATALOG_FILE", ""),
		BaseScore:               envIntOr("BASE_SCORE", 100),
		MaxScore:                envIntOr("MAX_SCORE", 200),
		WrongGuessPenalty:       envIntOr("WRONG_GUESS_PENALTY", 30),
		UnfoundPenalty:          envIntOr("UNFOUND_PENALTY", 50),
		HintPenaltyYear:         envIntOr("HINT_PENALTY_YEAR", 10),
		HintPenaltyPublisher:    envIntOr("HINT_PENALTY_PUBLISHER", 20),
		HintPenaltyDeveloper:    envIntOr("HINT_PENALTY_DEVELOPER", 20),
		BonusRoundEvery:         envIntOr("BONUS_ROUND_EVERY", 3),
		RotationSchedule:        envOr("ROTATION_SCHEDULE", "0 0 * * *"),
		SweepConcurrency:        envIntOr("SWEEP_CONCURRENCY", 4),
		SweepSessionTimeout:     envDurationOr("SWEEP_SESSION_TIMEOUT", 10*time.Second),
		DisabledTasks:           envListOr("DISABLED_TASKS", nil),
		AchievementWorkerCount:  envIntOr("ACHIEVEMENT_WORKER_COUNT", 2),
		AchievementQueueSize:    envIntOr("ACHIEVEMENT_QUEUE_SIZE", 64),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q must be one of DEBUG, INFO, WARN, ERROR", c.LogLevel))
	}
	if c.ScreenshotsPerChallenge < 1 {
		problems = append(problems, "SCREENSHOTS_PER_CHALLENGE must be at least 1")
	}
	if c.MinScreenshotQuality < 0 {
		problems = append(problems, "MIN_SCREENSHOT_QUALITY cannot be negative")
	}
	if c.TierTimeLimitSeconds < 1 {
		problems = append(problems, "TIER_TIME_LIMIT_SECONDS must be at least 1")
	}
	if c.FinalBonusPercent != 0 && c.FinalBonusPercent < 100 {
		problems = append(problems, "FINAL_BONUS_PERCENT must be 0 or at least 100")
	}
	if c.BaseScore < 1 {
		problems = append(problems, "BASE_SCORE must be at least 1")
	}
	if c.MaxScore < c.BaseScore {
		problems = append(problems, "MAX_SCORE cannot be lower than BASE_SCORE")
	}
	for name, v := range map[string]int{
		"WRONG_GUESS_PENALTY":    c.WrongGuessPenalty,
		"UNFOUND_PENALTY":        c.UnfoundPenalty,
		"HINT_PENALTY_YEAR":      c.HintPenaltyYear,
		"HINT_PENALTY_PUBLISHER": c.HintPenaltyPublisher,
		"HINT_PENALTY_DEVELOPER": c.HintPenaltyDeveloper,
	} {
		if v < 0 {
			problems = append(problems, name+" cannot be negative")
		}
	}
	if c.BonusRoundEvery < 1 {
		problems = append(problems, "BONUS_ROUND_EVERY must be at least 1")
	}
	if _, err := cron.ParseStandard(c.RotationSchedule); err != nil {
		problems = append(problems, fmt.Sprintf("ROTATION_SCHEDULE %q is not a valid cron expression: %v", c.RotationSchedule, err))
	}
	if c.SweepConcurrency < 1 {
		problems = append(problems, "SWEEP_CONCURRENCY must be at least 1")
	}
	if c.SweepSessionTimeout <= 0 {
		problems = append(problems, "SWEEP_SESSION_TIMEOUT must be positive")
	}
	if c.AchievementWorkerCount < 1 {
		problems = append(problems, "ACHIEVEMENT_WORKER_COUNT must be at least 1")
	}
	if c.AchievementQueueSize < 1 {
		problems = append(problems, "ACHIEVEMENT_QUEUE_SIZE must be at least 1")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// ScoringRules builds the scoring constants from the loaded settings.
func (c Config) ScoringRules() scoring.Rules {
	return scoring.Rules{
		BaseScore:         c.BaseScore,
		MaxScore:          c.MaxScore,
		WrongGuessPenalty: c.WrongGuessPenalty,
		UnfoundPenalty:    c.UnfoundPenalty,
		HintPenalties: map[models.HintType]int{
			models.HintYear:      c.HintPenaltyYear,
			models.HintPublisher: c.HintPenaltyPublisher,
			models.HintDeveloper: c.HintPenaltyDeveloper,
		},
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
