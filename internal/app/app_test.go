package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/dailyshot/internal/app"
	"github.com/vytor/dailyshot/internal/config"
	"github.com/vytor/dailyshot/internal/db"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/testutil"
)

func testConfig() config.Config {
	return config.Config{
		ScreenshotsPerChallenge: 5,
		MinScreenshotQuality:    70,
		TierTimeLimitSeconds:    30,
		BaseScore:               100,
		MaxScore:                200,
		WrongGuessPenalty:       30,
		UnfoundPenalty:          50,
		BonusRoundEvery:         3,
		SweepConcurrency:        2,
		SweepSessionTimeout:     time.Second,
		AchievementWorkerCount:  1,
		AchievementQueueSize:    8,
	}
}

func TestNew_InlineEndToEnd(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer testutil.MustClose(t, database)
	testutil.SeedCatalog(t, database.DB, 6, 90)

	a := app.New(testConfig(), database, true)
	assert.Nil(t, a.AchievementPool)
	a.Start(ctx)
	defer a.Stop()

	view, err := a.Sessions.StartOrResume(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, view.Positions, 5)

	summary, err := a.Sessions.EndSessionForUser(ctx, "alice", view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.UnfoundCount)

	list, err := a.Achievements.ListForUser(ctx, "alice")
	require.NoError(t, err)
	var firstWin *models.AchievementProgress
	for i := range list {
		if list[i].Key == "first_win" {
			firstWin = &list[i]
		}
	}
	require.NotNil(t, firstWin)
	assert.NotNil(t, firstWin.EarnedAt)
}

func TestNew_PooledAchievements(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer testutil.MustClose(t, database)

	a := app.New(testConfig(), database, false)
	require.NotNil(t, a.AchievementPool)
	a.Start(context.Background())
	a.Stop()
}
