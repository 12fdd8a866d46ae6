package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/challenges/today", s.handleTodayChallenge)
		r.Get("/leaderboard/{date}", s.handleLeaderboard)
		r.Post("/admin/rotate", s.handleRotate)

		r.Group(func(r chi.Router) {
			r.Use(userMiddleware)

			r.Post("/sessions", s.handleStartSession)
			r.Get("/sessions/{id}", s.handleGetSession)
			r.Post("/sessions/{id}/guesses", s.handleGuess)
			r.Post("/sessions/{id}/skip", s.handleSkip)
			r.Post("/sessions/{id}/navigate", s.handleNavigate)
			r.Post("/sessions/{id}/hints", s.handleHint)
			r.Post("/sessions/{id}/end", s.handleEndSession)
			r.Get("/achievements", s.handleAchievements)
		})
	})
	return r
}
