// Package matcher decides whether a player's answer names the game shown in a
// screenshot.
package matcher

import (
	"context"
	"strings"
	"unicode"

	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
)

// Candidate is a player's answer: either a picked catalog game or free text.
// GameID wins when both are set.
type Candidate struct {
	GameID *int64
	Text   string
}

// Matcher checks a candidate answer against a screenshot.
type Matcher interface {
	IsMatch(ctx context.Context, candidate Candidate, shot models.Screenshot) (bool, error)
}

type catalogMatcher struct {
	catalog repository.CatalogRepository
}

// NewCatalogMatcher matches by game id, or by normalized title and aliases.
func NewCatalogMatcher(catalog repository.CatalogRepository) Matcher {
	return &catalogMatcher{catalog: catalog}
}

func (m *catalogMatcher) IsMatch(ctx context.Context, candidate Candidate, shot models.Screenshot) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("matcher")

	if candidate.GameID != nil {
		return *candidate.GameID == shot.GameID, nil
	}

	want := Normalize(candidate.Text)
	if want == "" {
		return false, nil
	}

	game, err := m.catalog.GetGame(ctx, shot.GameID)
	if err != nil {
		log.Error("failed to load game: id=%d, err=%v", shot.GameID, err)
		return false, err
	}
	if game == nil {
		log.Warn("screenshot references missing game: screenshot_id=%d, game_id=%d", shot.ID, shot.GameID)
		return false, nil
	}
	if Normalize(game.Name) == want {
		return true, nil
	}

	aliases, err := m.catalog.ListAliases(ctx, game.ID)
	if err != nil {
		log.Error("failed to load aliases: game_id=%d, err=%v", game.ID, err)
		return false, err
	}
	for _, alias := range aliases {
		if Normalize(alias) == want {
			return true, nil
		}
	}
	return false, nil
}

// Normalize lowercases s, turns punctuation into spaces, collapses runs of
// whitespace and drops a leading "the".
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'':
			// "Baldur's" and "Baldurs" are the same answer
		default:
			b.WriteRune(' ')
		}
	}
	words := strings.Fields(b.String())
	if len(words) > 1 && words[0] == "the" {
		words = words[1:]
	}
	return strings.Join(words, " ")
}
