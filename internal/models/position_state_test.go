package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/dailyshot/internal/models"
)

func TestCanTransition(t *testing.T) {
	all := []models.PositionStatus{
		models.PositionNotVisited, models.PositionInProgress, models.PositionSkipped, models.PositionCorrect,
	}
	allowed := map[[2]models.PositionStatus]bool{
		{models.PositionNotVisited, models.PositionInProgress}: true,
		{models.PositionInProgress, models.PositionInProgress}: true,
		{models.PositionInProgress, models.PositionSkipped}:    true,
		{models.PositionInProgress, models.PositionCorrect}:    true,
		{models.PositionSkipped, models.PositionSkipped}:       true,
		{models.PositionSkipped, models.PositionCorrect}:       true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]models.PositionStatus{from, to}]
			assert.Equal(t, want, models.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCorrectIsTerminal(t *testing.T) {
	for _, to := range []models.PositionStatus{
		models.PositionNotVisited, models.PositionInProgress, models.PositionSkipped, models.PositionCorrect,
	} {
		got, err := models.Transition(models.PositionCorrect, to)
		require.Error(t, err)
		assert.Equal(t, models.PositionCorrect, got)

		var terr *models.TransitionError
		assert.ErrorAs(t, err, &terr)
	}
	assert.True(t, models.PositionCorrect.Terminal())
	assert.False(t, models.PositionCorrect.Open())
}

func TestVisit(t *testing.T) {
	assert.Equal(t, models.PositionInProgress, models.Visit(models.PositionNotVisited))
	assert.Equal(t, models.PositionSkipped, models.Visit(models.PositionSkipped))
	assert.Equal(t, models.PositionCorrect, models.Visit(models.PositionCorrect))
}

func TestPreviousStates(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.PositionStatus{models.PositionInProgress, models.PositionSkipped},
		models.PreviousStates(models.PositionCorrect))
	assert.ElementsMatch(t,
		[]models.PositionStatus{models.PositionNotVisited, models.PositionInProgress},
		models.PreviousStates(models.PositionInProgress))
	assert.False(t, models.PositionStatus("bogus").Valid())
}
