// Package scoring turns guess timings, correctness, hints and power-ups into
// integer score changes. Everything here is pure so it can be unit tested
// without storage.
package scoring

import (
	"github.com/vytor/dailyshot/internal/models"
)

// Multipliers are expressed in hundredths so no float ever reaches a score.
const (
	MultiplierBlazing = 200 // under 3s
	MultiplierFast    = 175 // under 5s
	MultiplierQuick   = 150 // under 10s
	MultiplierSteady  = 125 // under 20s
	MultiplierBase    = 100
)

type speedStep struct {
	underMs    int64
	multiplier int
}

var speedTable = []speedStep{
	{underMs: 3000, multiplier: MultiplierBlazing},
	{underMs: 5000, multiplier: MultiplierFast},
	{underMs: 10000, multiplier: MultiplierQuick},
	{underMs: 20000, multiplier: MultiplierSteady},
}

// Rules holds the tunable scoring constants.
type Rules struct {
	BaseScore         int
	MaxScore          int
	WrongGuessPenalty int
	// UnfoundPenalty is subtracted once per unsolved position when a session ends.
	UnfoundPenalty int
	HintPenalties  map[models.HintType]int
}

// DefaultRules mirrors the production defaults in config.
func DefaultRules() Rules {
	return Rules{
		BaseScore:         100,
		MaxScore:          200,
		WrongGuessPenalty: 30,
		UnfoundPenalty:    50,
		HintPenalties: map[models.HintType]int{
			models.HintYear:      10,
			models.HintPublisher: 20,
			models.HintDeveloper: 20,
		},
	}
}

// SpeedMultiplier returns the multiplier, in hundredths, for a guess that took
// elapsedMs. Boundaries fall into the lower tier: exactly 3000ms is 1.75x.
func SpeedMultiplier(elapsedMs int64) int {
	for _, step := range speedTable {
		if elapsedMs < step.underMs {
			return step.multiplier
		}
	}
	return MultiplierBase
}

// RoundHalfUp divides num by den rounding halves away from zero. den must be positive.
func RoundHalfUp(num, den int64) int64 {
	if num >= 0 {
		return (num + den/2) / den
	}
	return -((-num + den/2) / den)
}

// Floor clamps a running total at zero.
func Floor(total int) int {
	if total < 0 {
		return 0
	}
	return total
}

// Deadline returns the guess budget in milliseconds for a tier time limit.
// A double-timer power-up doubles the budget; the multiplier table is unaffected.
func Deadline(timeLimitSeconds int, doubleTimer bool) int64 {
	budget := int64(timeLimitSeconds) * 1000
	if doubleTimer {
		budget *= 2
	}
	return budget
}

// CorrectScore is the score for a correct guess before hint deductions:
// round(BaseScore * multiplier), scaled by an optional per-assignment bonus
// (hundredths), then capped at MaxScore.
func (r Rules) CorrectScore(elapsedMs int64, bonusPercent *int) int {
	scaled := int64(r.BaseScore) * int64(SpeedMultiplier(elapsedMs))
	den := int64(100)
	if bonusPercent != nil && *bonusPercent > 0 {
		scaled *= int64(*bonusPercent)
		den *= 100
	}
	earned := int(RoundHalfUp(scaled, den))
	if earned > r.MaxScore {
		earned = r.MaxScore
	}
	return earned
}

// HintDeduction returns the fixed deduction for one hint of type h.
func (r Rules) HintDeduction(h models.HintType) int {
	return r.HintPenalties[h]
}

// ApplyHints subtracts a position's accumulated hint deductions from a
// correct guess's score, floored at zero.
func ApplyHints(earned, deduction int) int {
	return Floor(earned - deduction)
}

// UnfoundTotal is the penalty for leaving unfound positions unsolved at
// perPosition each.
func UnfoundTotal(unfound, perPosition int) int {
	if unfound <= 0 || perPosition <= 0 {
		return 0
	}
	return unfound * perPosition
}

// GuessInput is everything needed to score a single attempt. Hint deductions
// are not part of it: they are applied with ApplyHints against the stored
// position when the guess is committed.
type GuessInput struct {
	Correct          bool
	ElapsedMs        int64
	TimeLimitSeconds int
	DoubleTimer      bool
	BonusPercent     *int
}

// GuessScore is the outcome of scoring one attempt. For a correct guess
// Earned is the score before hints; Delta is the wrong-guess change to the
// session total and must be applied with Floor.
type GuessScore struct {
	Correct    bool
	TimedOut   bool
	Earned     int
	Multiplier int
	Delta      int
}

// Score evaluates one attempt. A correct answer past the deadline counts as a
// wrong guess.
func (r Rules) Score(in GuessInput) GuessScore {
	out := GuessScore{Multiplier: SpeedMultiplier(in.ElapsedMs)}

	if in.Correct && in.TimeLimitSeconds > 0 && in.ElapsedMs > Deadline(in.TimeLimitSeconds, in.DoubleTimer) {
		out.TimedOut = true
		in.Correct = false
	}

	if !in.Correct {
		out.Delta = -r.WrongGuessPenalty
		return out
	}

	out.Correct = true
	out.Earned = r.CorrectScore(in.ElapsedMs, in.BonusPercent)
	out.Delta = out.Earned
	return out
}
