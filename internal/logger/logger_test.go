package logger_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/dailyshot/internal/logger"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 0, 0, 1, 0, time.UTC)
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.WARN), logger.WithColors(false))

	log.Debug("debug line")
	log.Info("info line")
	log.Warn("warn line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithColors(false),
		logger.WithClock(fixedClock),
	).WithPrefix("sweeper").WithFields(map[string]any{"zeta": 1, "alpha": "a"})

	log.Info("closed %d sessions", 3)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "2026-03-14 00:00:01.000 INFO  [sweeper]"), line)
	assert.Contains(t, line, "closed 3 sessions alpha=a zeta=1")
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithColors(false), logger.WithClock(fixedClock))

	log.WithError(errors.New("disk full")).Error("job failed")

	assert.Contains(t, buf.String(), "job failed error=disk full")
}

func TestLogger_WithErrorNil(t *testing.T) {
	log := logger.Discard()
	assert.Same(t, log, log.WithError(nil))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.Level
		ok   bool
	}{
		{"debug", logger.DEBUG, true},
		{"INFO", logger.INFO, true},
		{"warning", logger.WARN, true},
		{" error ", logger.ERROR, true},
		{"loud", logger.INFO, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := logger.LookupLevel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestFromContext(t *testing.T) {
	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))

	custom := logger.Discard().WithPrefix("job")
	ctx := logger.NewContext(context.Background(), custom)
	assert.Same(t, custom, logger.FromContext(ctx))
}
