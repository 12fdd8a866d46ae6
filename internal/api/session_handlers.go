package api

import (
	"context"
	"net/http"

	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
)

type guessRequest struct {
	Position  int                 `json:"position"`
	GameID    *int64              `json:"game_id,omitempty"`
	Text      string              `json:"text,omitempty"`
	ElapsedMs int64               `json:"elapsed_ms"`
	PowerUp   *models.PowerUpType `json:"power_up,omitempty"`
}

type positionRequest struct {
	Position int `json:"position"`
}

type hintRequest struct {
	Position   int             `json:"position"`
	Type       models.HintType `json:"type"`
	UsePowerUp bool            `json:"use_power_up"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.SessionService.StartOrResume(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	view, err := s.SessionService.GetSession(r.Context(), userFromContext(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req guessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	outcome, err := s.SessionService.SubmitGuess(r.Context(), models.GuessInput{
		UserID:    userFromContext(r.Context()),
		SessionID: id,
		Position:  req.Position,
		GameID:    req.GameID,
		Text:      req.Text,
		ElapsedMs: req.ElapsedMs,
		PowerUp:   req.PowerUp,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, outcome)
}

// handleSkip and handleNavigate answer with the updated session so the client
// can redraw the cursor without a second request.
func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.movePosition(w, r, s.SessionService.Skip)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	s.movePosition(w, r, s.SessionService.NavigateTo)
}

func (s *Server) movePosition(w http.ResponseWriter, r *http.Request,
	move func(ctx context.Context, userID string, sessionID int64, position int) error) {
	id, err := sessionIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	userID := userFromContext(r.Context())
	if err := move(r.Context(), userID, id, req.Position); err != nil {
		handleError(w, r, err)
		return
	}
	view, err := s.SessionService.GetSession(r.Context(), userID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req hintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	reveal, err := s.SessionService.UseHint(r.Context(), models.HintInput{
		UserID:     userFromContext(r.Context()),
		SessionID:  id,
		Position:   req.Position,
		Type:       req.Type,
		UsePowerUp: req.UsePowerUp,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reveal)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	summary, err := s.SessionService.EndSessionForUser(r.Context(), userFromContext(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !summary.AlreadyCompleted {
		logger.FromContext(r.Context()).Info("session ended by player: id=%d, score=%d", id, summary.Score)
	}
	writeJSON(w, r, http.StatusOK, summary)
}
