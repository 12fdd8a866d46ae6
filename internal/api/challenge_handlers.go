package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/vytor/dailyshot/internal/errors"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/models"
)

func (s *Server) handleTodayChallenge(w http.ResponseWriter, r *http.Request) {
	view, err := s.ChallengeService.GetToday(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

type leaderboardResponse struct {
	Date    string                    `json:"date"`
	Entries []models.LeaderboardEntry `json:"entries"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if date == "today" {
		date = models.ChallengeDate(s.now())
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handleError(w, r, apperrors.NewBadRequestError("invalid limit: "+raw))
			return
		}
		limit = n
	}

	entries, err := s.LeaderboardService.Top(r.Context(), date, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	writeJSON(w, r, http.StatusOK, leaderboardResponse{Date: date, Entries: entries})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := s.AchievementService.ListForUser(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// handleRotate runs the rotation sweep immediately, for recovery after downtime.
func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	log.Info("manual rotation requested")

	now := s.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			handleError(w, r, apperrors.NewBadRequestError("invalid date: "+raw))
			return
		}
		now = d
	}

	report, err := s.Rotator.Run(r.Context(), now)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}
