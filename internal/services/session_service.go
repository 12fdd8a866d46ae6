package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/vytor/dailyshot/internal/errors"
	"github.com/vytor/dailyshot/internal/jobs"
	"github.com/vytor/dailyshot/internal/logger"
	"github.com/vytor/dailyshot/internal/matcher"
	"github.com/vytor/dailyshot/internal/models"
	"github.com/vytor/dailyshot/internal/repository"
	"github.com/vytor/dailyshot/internal/scoring"
)

// SessionService runs a player's attempt at a daily challenge
type SessionService interface {
	StartOrResume(ctx context.Context, userID string) (*models.SessionView, error)
	GetSession(ctx context.Context, userID string, sessionID int64) (*models.SessionView, error)
	SubmitGuess(ctx context.Context, in models.GuessInput) (*models.GuessOutcome, error)
	Skip(ctx context.Context, userID string, sessionID int64, position int) error
	NavigateTo(ctx context.Context, userID string, sessionID int64, position int) error
	UseHint(ctx context.Context, in models.HintInput) (*models.HintReveal, error)
	// EndSession closes a session on behalf of the system. It is idempotent:
	// a second call returns the stored summary with AlreadyCompleted set.
	EndSession(ctx context.Context, sessionID int64, reason models.EndReason) (*models.SessionSummary, error)
	// EndSessionForUser is the voluntary end requested by the owning player.
	EndSessionForUser(ctx context.Context, userID string, sessionID int64) (*models.SessionSummary, error)
}

// SessionSettings are the session engine's tunables.
type SessionSettings struct {
	Rules           scoring.Rules
	BonusRoundEvery int
	Now             func() time.Time
}

type sessionService struct {
	sessionRepo   repository.SessionRepository
	challengeRepo repository.ChallengeRepository
	catalogRepo   repository.CatalogRepository
	statsRepo     repository.StatsRepository
	challenges    ChallengeService
	leaderboard   LeaderboardService
	matcher       matcher.Matcher
	jobQueue      jobs.JobQueue
	rules         scoring.Rules
	bonusEvery    int
	now           func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo repository.SessionRepository,
	challengeRepo repository.ChallengeRepository,
	catalogRepo repository.CatalogRepository,
	statsRepo repository.StatsRepository,
	challenges ChallengeService,
	leaderboard LeaderboardService,
	match matcher.Matcher,
	jobQueue jobs.JobQueue,
	settings SessionSettings,
) SessionService {
	now := settings.Now
	if now == nil {
		now = time.Now
	}
	bonusEvery := settings.BonusRoundEvery
	if bonusEvery <= 0 {
		bonusEvery = 3
	}
	return &sessionService{
		sessionRepo:   sessionRepo,
		challengeRepo: challengeRepo,
		catalogRepo:   catalogRepo,
		statsRepo:     statsRepo,
		challenges:    challenges,
		leaderboard:   leaderboard,
		matcher:       match,
		jobQueue:      jobQueue,
		rules:         settings.Rules,
		bonusEvery:    bonusEvery,
		now:           now,
	}
}

func (s *sessionService) StartOrResume(ctx context.Context, userID string) (*models.SessionView, error) {
	log := logger.FromContext(ctx).WithPrefix("session_service").WithField("user_id", userID)
	log.Debug("starting or resuming session")

	if userID == "" {
		return nil, apperrors.NewValidationError("user_id", "cannot be empty")
	}

	challenge, err := s.challenges.GetToday(ctx)
	if err != nil {
		return nil, err
	}
	if len(challenge.Tiers) == 0 {
		return nil, apperrors.NewInternalError(fmt.Errorf("challenge %d has no tiers", challenge.Challenge.ID))
	}
	tier := challenge.Tiers[0]

	session, err := s.sessionRepo.GetByUserAndChallenge(ctx, userID, challenge.Challenge.ID)
	if err != nil {
		log.Error("failed to look up session: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if session != nil {
		log.Debug("resuming session: id=%d", session.ID)
		return s.view(ctx, session)
	}

	_, err = s.sessionRepo.Create(ctx, models.GameSession{
		UserID:      userID,
		ChallengeID: challenge.Challenge.ID,
		StartedAt:   s.now().UTC(),
	}, tier)
	created := err == nil
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		log.Error("failed to create session: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	session, err = s.sessionRepo.GetByUserAndChallenge(ctx, userID, challenge.Challenge.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if session == nil {
		return nil, apperrors.NewInternalError(errors.New("session vanished after create"))
	}

	if created {
		log.Info("session started: id=%d, challenge_date=%s", session.ID, challenge.Challenge.Date)
		s.recordPlayDay(ctx, userID, challenge.Challenge.Date)
	}
	return s.view(ctx, session)
}

// recordPlayDay extends the streak and queues an evaluation when it moved.
// Failures are logged; they never block play.
func (s *sessionService) recordPlayDay(ctx context.Context, userID, date string) {
	log := logger.FromContext(ctx)

	_, changed, err := s.statsRepo.RecordPlayDay(ctx, userID, date)
	if err != nil {
		log.Error("failed to update streak: user=%s, err=%v", userID, err)
		return
	}
	if !changed {
		return
	}
	_ = s.jobQueue.EnqueueAchievementEvaluation(ctx, models.EvaluationRequest{
		UserID:  userID,
		Date:    date,
		Trigger: models.TriggerStreakUpdate,
	})
}

func (s *sessionService) GetSession(ctx context.Context, userID string, sessionID int64) (*models.SessionView, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, session)
}

// loadOwned returns the session when it exists and belongs to userID.
func (s *sessionService) loadOwned(ctx context.Context, userID string, sessionID int64) (*models.GameSession, error) {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get session: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if session == nil || session.UserID != userID {
		return nil, apperrors.NewSessionNotFoundError(sessionID)
	}
	return session, nil
}

// playState is everything a mutating operation needs about the session's
// current tier.
type playState struct {
	session     *models.GameSession
	tier        *models.Tier
	tierSession *models.TierSession
	positions   []models.PositionState
}

func (p *playState) position(n int) (models.PositionState, error) {
	if n < 1 || n > p.tier.Size() {
		return models.PositionState{}, apperrors.NewInvalidPositionError(n, p.tier.Size())
	}
	for _, ps := range p.positions {
		if ps.Position == n {
			return ps, nil
		}
	}
	return models.PositionState{}, apperrors.NewInternalError(fmt.Errorf("missing state for position %d", n))
}

// nextOpen returns the first position after from, wrapping around, that is
// not correct, treating from itself as closed. It returns from when nothing
// else is open.
func (p *playState) nextOpen(from int) int {
	size := len(p.positions)
	for step := 1; step < size; step++ {
		candidate := p.positions[(from-1+step)%size]
		if candidate.Status.Open() {
			return candidate.Position
		}
	}
	return from
}

// loadPlayable loads an open, owned session with its tier state.
func (s *sessionService) loadPlayable(ctx context.Context, userID string, sessionID int64) (*playState, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, apperrors.NewSessionCompletedError(sessionID)
	}

	tier, err := s.challengeRepo.GetTier(ctx, session.CurrentTierID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if tier == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("tier %d not found", session.CurrentTierID))
	}
	ts, err := s.sessionRepo.GetTierSession(ctx, session.ID, tier.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if ts == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("tier session missing for session %d", session.ID))
	}
	positions, err := s.sessionRepo.ListPositions(ctx, ts.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &playState{session: session, tier: tier, tierSession: ts, positions: positions}, nil
}

// mapRepoError turns conditional-update outcomes into application errors.
func mapRepoError(err error, sessionID int64, position int, powerUp string) error {
	switch {
	case errors.Is(err, repository.ErrSessionClosed):
		return apperrors.NewSessionCompletedError(sessionID)
	case errors.Is(err, repository.ErrPositionCorrect):
		return apperrors.NewPositionAlreadyCorrectError(position)
	case errors.Is(err, repository.ErrPowerUpUnavailable):
		return apperrors.NewPowerUpUnavailableError(powerUp)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (s *sessionService) SubmitGuess(ctx context.Context, in models.GuessInput) (*models.GuessOutcome, error) {
	log := logger.FromContext(ctx).WithPrefix("session_service").WithFields(map[string]any{
		"session_id": in.SessionID,
		"position":   in.Position,
	})
	log.Debug("submitting guess: elapsed_ms=%d", in.ElapsedMs)

	if in.ElapsedMs < 0 {
		return nil, apperrors.NewValidationError("elapsed_ms", "cannot be negative")
	}
	if in.PowerUp != nil && *in.PowerUp != models.PowerUpDoubleTimer {
		return nil, apperrors.NewValidationError("power_up", "only double_timer applies to a guess")
	}

	state, err := s.loadPlayable(ctx, in.UserID, in.SessionID)
	if err != nil {
		return nil, err
	}
	pos, err := state.position(in.Position)
	if err != nil {
		return nil, err
	}
	if pos.Status == models.PositionCorrect {
		return nil, apperrors.NewPositionAlreadyCorrectError(in.Position)
	}

	assignment, _ := state.tier.Assignment(in.Position)
	shot, err := s.catalogRepo.GetScreenshot(ctx, assignment.ScreenshotID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if shot == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("screenshot %d not found", assignment.ScreenshotID))
	}

	matched, err := s.matcher.IsMatch(ctx, matcher.Candidate{GameID: in.GameID, Text: in.Text}, *shot)
	if err != nil {
		log.Error("matcher failed: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	score := s.rules.Score(scoring.GuessInput{
		Correct:          matched,
		ElapsedMs:        in.ElapsedMs,
		TimeLimitSeconds: state.tier.TimeLimitSeconds,
		DoubleTimer:      in.PowerUp != nil,
		BonusPercent:     assignment.BonusPercent,
	})

	next := in.Position
	if score.Correct {
		next = state.nextOpen(in.Position)
	}

	res, err := s.sessionRepo.CommitGuess(ctx, models.GuessCommit{
		SessionID:     state.session.ID,
		TierSessionID: state.tierSession.ID,
		Guess: models.Guess{
			ScreenshotID:  shot.ID,
			Position:      in.Position,
			GuessedGameID: in.GameID,
			GuessedText:   in.Text,
			IsCorrect:     score.Correct,
			TimedOut:      score.TimedOut,
			TimeTakenMs:   in.ElapsedMs,
			ScoreEarned:   score.Earned,
			PowerUpUsed:   in.PowerUp,
			CreatedAt:     s.now().UTC(),
		},
		Delta:          score.Delta,
		NextPosition:   next,
		ConsumePowerUp: in.PowerUp,
	})
	if err != nil {
		kind := ""
		if in.PowerUp != nil {
			kind = string(*in.PowerUp)
		}
		return nil, mapRepoError(err, in.SessionID, in.Position, kind)
	}

	outcome := &models.GuessOutcome{
		GuessID:         res.GuessID,
		Position:        in.Position,
		Status:          res.Status,
		Correct:         score.Correct,
		TimedOut:        score.TimedOut,
		ScoreEarned:     res.ScoreEarned,
		HintDeduction:   res.HintDeduction,
		Multiplier:      score.Multiplier,
		SessionScore:    res.SessionScore,
		CurrentPosition: next,
		AllFound:        res.TierCorrect >= state.tier.Size(),
	}

	if score.Correct {
		outcome.EarnedPowerUp = s.awardBonus(ctx, state.tierSession.ID, res.TierCorrect)
	}

	log.Info("guess recorded: correct=%v, timed_out=%v, earned=%d, session_score=%d",
		outcome.Correct, outcome.TimedOut, outcome.ScoreEarned, outcome.SessionScore)
	return outcome, nil
}

// awardBonus grants a power-up when tierCorrect completes a bonus round.
func (s *sessionService) awardBonus(ctx context.Context, tierSessionID int64, tierCorrect int) *models.PowerUp {
	if tierCorrect == 0 || tierCorrect%s.bonusEvery != 0 {
		return nil
	}
	kind := models.BonusPowerUp(tierCorrect / s.bonusEvery)
	p, err := s.sessionRepo.AwardPowerUp(ctx, tierSessionID, kind, tierCorrect)
	if err != nil {
		logger.FromContext(ctx).Error("failed to award power-up: %v", err)
		return nil
	}
	return p
}

func (s *sessionService) Skip(ctx context.Context, userID string, sessionID int64, position int) error {
	log := logger.FromContext(ctx).WithPrefix("session_service")
	log.Debug("skipping: session_id=%d, position=%d", sessionID, position)

	state, err := s.loadPlayable(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	pos, err := state.position(position)
	if err != nil {
		return err
	}
	if pos.Status == models.PositionCorrect {
		return nil
	}

	// A never-visited position is visited on the way to being skipped.
	if _, err := models.Transition(models.Visit(pos.Status), models.PositionSkipped); err != nil {
		return apperrors.NewBadRequestError(err.Error())
	}

	err = s.sessionRepo.MovePosition(ctx, sessionID, state.tierSession.ID, position,
		[]models.PositionStatus{pos.Status}, models.PositionSkipped, state.nextOpen(position))
	if errors.Is(err, repository.ErrPositionCorrect) {
		return nil
	}
	if err != nil {
		return mapRepoError(err, sessionID, position, "")
	}
	return nil
}

func (s *sessionService) NavigateTo(ctx context.Context, userID string, sessionID int64, position int) error {
	log := logger.FromContext(ctx).WithPrefix("session_service")
	log.Debug("navigating: session_id=%d, position=%d", sessionID, position)

	state, err := s.loadPlayable(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	pos, err := state.position(position)
	if err != nil {
		return err
	}
	if pos.Status == models.PositionCorrect {
		return apperrors.NewPositionAlreadyCorrectError(position)
	}

	target, err := models.Transition(pos.Status, models.Visit(pos.Status))
	if err != nil {
		return apperrors.NewBadRequestError(err.Error())
	}

	err = s.sessionRepo.MovePosition(ctx, sessionID, state.tierSession.ID, position,
		[]models.PositionStatus{pos.Status}, target, position)
	if err != nil {
		return mapRepoError(err, sessionID, position, "")
	}
	return nil
}

func (s *sessionService) UseHint(ctx context.Context, in models.HintInput) (*models.HintReveal, error) {
	log := logger.FromContext(ctx).WithPrefix("session_service")
	log.Debug("using hint: session_id=%d, position=%d, type=%s, power_up=%v", in.SessionID, in.Position, in.Type, in.UsePowerUp)

	if !in.Type.Valid() {
		return nil, apperrors.NewValidationError("type", "must be one of year, publisher, developer")
	}

	state, err := s.loadPlayable(ctx, in.UserID, in.SessionID)
	if err != nil {
		return nil, err
	}
	pos, err := state.position(in.Position)
	if err != nil {
		return nil, err
	}
	if pos.Status == models.PositionCorrect {
		return nil, apperrors.NewPositionAlreadyCorrectError(in.Position)
	}

	shot, err := s.catalogRepo.GetScreenshot(ctx, pos.ScreenshotID)
	if err != nil || shot == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("screenshot %d: %v", pos.ScreenshotID, err))
	}
	game, err := s.catalogRepo.GetGame(ctx, shot.GameID)
	if err != nil || game == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("game %d: %v", shot.GameID, err))
	}

	deduction := s.rules.HintDeduction(in.Type)
	if in.UsePowerUp {
		deduction = 0
	}

	created, err := s.sessionRepo.RecordHint(ctx, in.SessionID, state.tierSession.ID, in.Position, in.Type, deduction, in.UsePowerUp)
	if err != nil {
		return nil, mapRepoError(err, in.SessionID, in.Position, string(models.PowerUpFreeHint))
	}

	after, err := s.sessionRepo.GetPosition(ctx, state.tierSession.ID, in.Position)
	if err != nil || after == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("reload position %d: %v", in.Position, err))
	}

	reveal := &models.HintReveal{
		Position:      in.Position,
		Type:          in.Type,
		Value:         hintValue(game, in.Type),
		AlreadyUsed:   !created,
		TotalDeducted: after.HintDeduction,
	}
	if created {
		reveal.Deduction = deduction
		log.Info("hint revealed: session_id=%d, position=%d, type=%s, deduction=%d", in.SessionID, in.Position, in.Type, deduction)
	}
	return reveal, nil
}

func hintValue(g *models.Game, h models.HintType) string {
	switch h {
	case models.HintYear:
		if g.ReleaseYear == 0 {
			return ""
		}
		return strconv.Itoa(g.ReleaseYear)
	case models.HintPublisher:
		return g.Publisher
	case models.HintDeveloper:
		return g.Developer
	}
	return ""
}

func (s *sessionService) EndSessionForUser(ctx context.Context, userID string, sessionID int64) (*models.SessionSummary, error) {
	if _, err := s.loadOwned(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.EndSession(ctx, sessionID, models.EndVoluntary)
}

func (s *sessionService) EndSession(ctx context.Context, sessionID int64, reason models.EndReason) (*models.SessionSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("session_service").WithField("session_id", sessionID)
	log.Debug("ending session: reason=%s", reason)

	if !reason.Valid() {
		return nil, apperrors.NewValidationError("reason", "must be voluntary or forced")
	}

	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if session == nil {
		return nil, apperrors.NewSessionNotFoundError(sessionID)
	}

	completed, err := s.sessionRepo.Complete(ctx, sessionID, reason, s.rules.UnfoundPenalty, s.now().UTC())
	if err != nil {
		log.Error("failed to complete session: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	summary, err := s.summary(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary.AlreadyCompleted = !completed
	if !completed {
		log.Debug("session was already completed")
		return summary, nil
	}

	log.Info("session ended: reason=%s, score=%d, unfound=%d", reason, summary.Score, summary.UnfoundCount)
	s.afterCompletion(ctx, summary)
	return summary, nil
}

// afterCompletion feeds the leaderboard and lifetime stats and queues one
// achievement evaluation. The session is already closed, so failures here
// are logged rather than returned.
func (s *sessionService) afterCompletion(ctx context.Context, summary *models.SessionSummary) {
	log := logger.FromContext(ctx)

	err := s.leaderboard.Record(ctx, models.LeaderboardEntry{
		UserID:     summary.UserID,
		Date:       summary.ChallengeDate,
		TotalScore: summary.Score,
		RecordedAt: s.now().UTC(),
	})
	if err != nil {
		log.Error("failed to record leaderboard entry: %v", err)
	}

	if _, err := s.statsRepo.RecordCompletion(ctx, summary.UserID, summary.Score); err != nil {
		log.Error("failed to record completion stats: %v", err)
	}

	_ = s.jobQueue.EnqueueAchievementEvaluation(ctx, models.EvaluationRequest{
		UserID:    summary.UserID,
		SessionID: summary.SessionID,
		Date:      summary.ChallengeDate,
		Trigger:   models.TriggerSessionEnd,
	})
}

func (s *sessionService) summary(ctx context.Context, sessionID int64) (*models.SessionSummary, error) {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if session == nil {
		return nil, apperrors.NewSessionNotFoundError(sessionID)
	}
	ts, err := s.sessionRepo.GetTierSession(ctx, sessionID, session.CurrentTierID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buildSummary(session, ts), nil
}

func buildSummary(session *models.GameSession, ts *models.TierSession) *models.SessionSummary {
	summary := &models.SessionSummary{
		SessionID:      session.ID,
		UserID:         session.UserID,
		ChallengeID:    session.ChallengeID,
		ChallengeDate:  session.ChallengeDate,
		Score:          session.Score,
		UnfoundCount:   session.UnfoundCount,
		UnfoundPenalty: session.UnfoundPenalty,
		Reason:         session.EndReason,
		CompletedAt:    session.CompletedAt,
	}
	if ts != nil {
		summary.CorrectCount = ts.CorrectCount
		summary.WrongCount = ts.WrongCount
	}
	return summary
}

func (s *sessionService) view(ctx context.Context, session *models.GameSession) (*models.SessionView, error) {
	ts, err := s.sessionRepo.GetTierSession(ctx, session.ID, session.CurrentTierID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if ts == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("tier session missing for session %d", session.ID))
	}
	positions, err := s.sessionRepo.ListPositions(ctx, ts.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	powerUps, err := s.sessionRepo.ListPowerUps(ctx, ts.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	v := &models.SessionView{
		Session:   *session,
		Tier:      *ts,
		Positions: positions,
		PowerUps:  powerUps,
	}
	if session.Completed {
		summary := buildSummary(session, ts)
		summary.AlreadyCompleted = true
		v.Summary = summary
	}
	return v, nil
}
