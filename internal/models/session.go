package models

import "time"

// EndReason records why a session was closed.
type EndReason string

const (
	EndVoluntary EndReason = "voluntary"
	EndForced    EndReason = "forced"
)

func (r EndReason) Valid() bool {
	return r == EndVoluntary || r == EndForced
}

type GameSession struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"user_id"`
	ChallengeID     int64      `json:"challenge_id"`
	ChallengeDate   string     `json:"challenge_date"`
	CurrentTierID   int64      `json:"current_tier_id"`
	CurrentPosition int        `json:"current_position"`
	Score           int        `json:"score"`
	Completed       bool       `json:"completed"`
	EndReason       EndReason  `json:"end_reason,omitempty"`
	UnfoundCount    int        `json:"unfound_count"`
	UnfoundPenalty  int        `json:"unfound_penalty"` // nominal, before flooring
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

type TierSession struct {
	ID            int64      `json:"id"`
	GameSessionID int64      `json:"game_session_id"`
	TierID        int64      `json:"tier_id"`
	Score         int        `json:"score"`
	CorrectCount  int        `json:"correct_count"`
	WrongCount    int        `json:"wrong_count"`
	Completed     bool       `json:"completed"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

type PositionState struct {
	TierSessionID int64          `json:"tier_session_id"`
	Position      int            `json:"position"`
	ScreenshotID  int64          `json:"screenshot_id"`
	Status        PositionStatus `json:"status"`
	WrongGuesses  int            `json:"wrong_guesses"`
	HintDeduction int            `json:"hint_deduction"`
}

// Guess is an immutable attempt record.
type Guess struct {
	ID            int64        `json:"id"`
	TierSessionID int64        `json:"tier_session_id"`
	ScreenshotID  int64        `json:"screenshot_id"`
	Position      int          `json:"position"`
	GuessedGameID *int64       `json:"guessed_game_id"`
	GuessedText   string       `json:"guessed_text"`
	IsCorrect     bool         `json:"is_correct"`
	TimedOut      bool         `json:"timed_out"`
	TimeTakenMs   int64        `json:"time_taken_ms"`
	ScoreEarned   int          `json:"score_earned"`
	PowerUpUsed   *PowerUpType `json:"power_up_used"`
	CreatedAt     time.Time    `json:"created_at"`
}

// GuessInput is a player's attempt as received from the transport layer.
type GuessInput struct {
	UserID    string
	SessionID int64
	Position  int
	GameID    *int64
	Text      string
	ElapsedMs int64
	PowerUp   *PowerUpType
}

type GuessOutcome struct {
	GuessID         int64          `json:"guess_id"`
	Position        int            `json:"position"`
	Status          PositionStatus `json:"status"`
	Correct         bool           `json:"correct"`
	TimedOut        bool           `json:"timed_out"`
	ScoreEarned     int            `json:"score_earned"`
	HintDeduction   int            `json:"hint_deduction"`
	Multiplier      int            `json:"multiplier"` // hundredths
	SessionScore    int            `json:"session_score"`
	CurrentPosition int            `json:"current_position"`
	AllFound        bool           `json:"all_found"`
	EarnedPowerUp   *PowerUp       `json:"earned_power_up,omitempty"`
}

// GuessCommit is a scored guess ready to be applied atomically. For a
// correct guess Guess.ScoreEarned is the score before hints; the position's
// hint deductions are subtracted inside the commit and the result is added
// to the totals. Delta is only applied to wrong guesses.
type GuessCommit struct {
	SessionID      int64
	TierSessionID  int64
	Guess          Guess
	Delta          int // wrong-guess change to tier and session totals, floored at zero
	NextPosition   int // cursor after a correct guess
	ConsumePowerUp *PowerUpType
}

type GuessCommitResult struct {
	GuessID       int64
	ScoreEarned   int
	HintDeduction int
	SessionScore  int
	TierCorrect   int
	Status        PositionStatus
}

type SessionSummary struct {
	SessionID        int64      `json:"session_id"`
	UserID           string     `json:"user_id"`
	ChallengeID      int64      `json:"challenge_id"`
	ChallengeDate    string     `json:"challenge_date"`
	Score            int        `json:"score"`
	CorrectCount     int        `json:"correct_count"`
	WrongCount       int        `json:"wrong_count"`
	UnfoundCount     int        `json:"unfound_count"`
	UnfoundPenalty   int        `json:"unfound_penalty"`
	Reason           EndReason  `json:"reason"`
	CompletedAt      *time.Time `json:"completed_at"`
	AlreadyCompleted bool       `json:"already_completed"`
}

// SessionView is the full read model of a player's session.
type SessionView struct {
	Session   GameSession     `json:"session"`
	Tier      TierSession     `json:"tier"`
	Positions []PositionState `json:"positions"`
	PowerUps  []PowerUp       `json:"power_ups"`
	Summary   *SessionSummary `json:"summary,omitempty"`
}
