package models

import "fmt"

// PositionStatus is the per-position progress of a tier session.
type PositionStatus string

const (
	PositionNotVisited PositionStatus = "not_visited"
	PositionInProgress PositionStatus = "in_progress"
	PositionSkipped    PositionStatus = "skipped"
	PositionCorrect    PositionStatus = "correct"
)

// positionTransitions lists every legal move. Anything absent is rejected.
var positionTransitions = map[PositionStatus]map[PositionStatus]bool{
	PositionNotVisited: {PositionInProgress: true},
	PositionInProgress: {PositionInProgress: true, PositionSkipped: true, PositionCorrect: true},
	PositionSkipped:    {PositionSkipped: true, PositionCorrect: true},
	PositionCorrect:    {},
}

// Valid reports whether s is one of the known statuses.
func (s PositionStatus) Valid() bool {
	_, ok := positionTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s PositionStatus) Terminal() bool {
	return s == PositionCorrect
}

// Open reports whether the cursor may rest on s.
func (s PositionStatus) Open() bool {
	return s != PositionCorrect
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to PositionStatus) bool {
	return positionTransitions[from][to]
}

// TransitionError is returned for an illegal status change.
type TransitionError struct {
	From PositionStatus
	To   PositionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal position transition %s -> %s", e.From, e.To)
}

// Transition validates from -> to and returns the resulting status.
func Transition(from, to PositionStatus) (PositionStatus, error) {
	if !CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}

// Visit moves a position onto the cursor: not_visited becomes in_progress,
// everything else is left as is.
func Visit(s PositionStatus) PositionStatus {
	if s == PositionNotVisited {
		return PositionInProgress
	}
	return s
}

// PreviousStates returns every status that may legally move to to.
func PreviousStates(to PositionStatus) []PositionStatus {
	var out []PositionStatus
	for _, from := range []PositionStatus{PositionNotVisited, PositionInProgress, PositionSkipped, PositionCorrect} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}
