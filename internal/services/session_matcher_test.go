package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vytor/dailyshot/internal/errors"
	"github.com/vytor/dailyshot/internal/matcher"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/testutil/mocks"
)

func textGuess(view *models.SessionView, position int, text string, elapsedMs int64) models.GuessInput {
	return models.GuessInput{
		UserID:    view.Session.UserID,
		SessionID: view.Session.ID,
		Position:  position,
		Text:      text,
		ElapsedMs: elapsedMs,
	}
}

func TestSubmitGuess_UsesInjectedMatcher(t *testing.T) {
	m := &mocks.MockMatcher{}
	e := newEnv(t, envOptions{matcher: m})
	view := e.start(t, "alice")
	ctx := context.Background()

	m.On("IsMatch", mock.Anything, matcher.Candidate{Text: "close enough"}, mock.AnythingOfType("models.Screenshot")).
		Return(true, nil).Once()
	m.On("IsMatch", mock.Anything, matcher.Candidate{Text: "nowhere near"}, mock.AnythingOfType("models.Screenshot")).
		Return(false, nil).Once()

	out, err := e.sessions.SubmitGuess(ctx, textGuess(view, 1, "nowhere near", 1000))
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.Equal(t, 0, out.SessionScore)

	out, err = e.sessions.SubmitGuess(ctx, textGuess(view, 1, "close enough", 4000))
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, 175, out.ScoreEarned)
	assert.Equal(t, 175, out.SessionScore)

	m.AssertExpectations(t)
}

func TestSubmitGuess_MatcherScreenshotIsAssigned(t *testing.T) {
	m := &mocks.MockMatcher{}
	e := newEnv(t, envOptions{matcher: m})
	view := e.start(t, "alice")

	want := view.Positions[0].ScreenshotID
	m.On("IsMatch", mock.Anything, mock.Anything, mock.MatchedBy(func(s models.Screenshot) bool {
		return s.ID == want
	})).Return(true, nil).Once()

	out, err := e.sessions.SubmitGuess(context.Background(), textGuess(view, 1, "anything", 2000))
	require.NoError(t, err)
	assert.True(t, out.Correct)
	m.AssertExpectations(t)
}

func TestSubmitGuess_MatcherFailureRecordsNothing(t *testing.T) {
	m := &mocks.MockMatcher{}
	e := newEnv(t, envOptions{matcher: m})
	view := e.start(t, "alice")
	ctx := context.Background()

	m.On("IsMatch", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("matcher down")).Once()

	_, err := e.sessions.SubmitGuess(ctx, textGuess(view, 1, "mario", 2000))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInternal))

	after := e.reload(t, view)
	assert.Equal(t, 0, after.Session.Score)
	assert.Equal(t, 0, after.Tier.WrongCount)
	assert.Equal(t, models.PositionInProgress, positionStatus(after, 1))

	guesses, err := e.sessionRepo.ListGuesses(ctx, after.Tier.ID)
	require.NoError(t, err)
	assert.Empty(t, guesses)
	m.AssertExpectations(t)
}

// hintingMatcher records a hint on the guessed position while the guess is
// being matched, after the service has read the position but before the
// guess is committed.
type hintingMatcher struct {
	matcher.Matcher
	before func()
}

func (m *hintingMatcher) IsMatch(ctx context.Context, c matcher.Candidate, shot models.Screenshot) (bool, error) {
	if m.before != nil {
		before := m.before
		m.before = nil
		before()
	}
	return m.Matcher.IsMatch(ctx, c, shot)
}

func TestSubmitGuess_HintDuringGuessIsDeducted(t *testing.T) {
	m := &hintingMatcher{}
	e := newEnv(t, envOptions{matcher: m})
	m.Matcher = matcher.NewCatalogMatcher(e.catalogRepo)
	ctx := context.Background()

	view := e.start(t, "alice")
	answer := e.answer(t, view, 1)

	m.before = func() {
		reveal, err := e.sessions.UseHint(ctx, models.HintInput{
			UserID:    "alice",
			SessionID: view.Session.ID,
			Position:  1,
			Type:      models.HintPublisher,
		})
		require.NoError(t, err)
		assert.Equal(t, 20, reveal.Deduction)
	}

	out, err := e.guess(view, 1, answer, 2500)
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, 20, out.HintDeduction)
	assert.Equal(t, 180, out.ScoreEarned)
	assert.Equal(t, 180, out.SessionScore)

	after := e.reload(t, view)
	guesses, err := e.sessionRepo.ListGuesses(ctx, after.Tier.ID)
	require.NoError(t, err)
	require.Len(t, guesses, 1)
	assert.Equal(t, 180, guesses[0].ScoreEarned)
	assert.Equal(t, 180, after.Session.Score)
	assert.Equal(t, 180, after.Tier.Score)
}
