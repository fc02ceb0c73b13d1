package poker

import "errors"

// ActionError reports a rejected attempt to act: the caller's input
// failed an admission precondition. Callers map these to the
// "InvalidAction" category at the transport boundary.
type ActionError struct {
	Reason string
}

func (e *ActionError) Error() string { return e.Reason }

// InvariantError marks a state the hand should never have reached. A
// Table session that observes one should treat the hand as corrupt:
// log it, and fall back to the last good snapshot rather than keep
// mutating the broken state.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string { return "invariant violation: " + e.Reason }

var (
	// ErrHandNotRunning is returned by Act when no betting round is in
	// progress (Stage is Waiting, Showdown or Complete); Tick is a
	// no-op in those stages.
	ErrHandNotRunning = errors.New("poker: hand is not running")
	// ErrNotYourTurn is returned when a seat other than the current
	// actor submits an action.
	ErrNotYourTurn = &ActionError{Reason: "not this seat's turn to act"}
	// ErrSeatEmpty is returned when referencing a seat index with no
	// occupant.
	ErrSeatEmpty = errors.New("poker: seat is empty")
	// ErrAlreadySeated is returned by AdmitSeat for an occupied index.
	ErrAlreadySeated = errors.New("poker: seat already occupied")
	// ErrInsufficientSeats is returned by StartHand with fewer than
	// two seats able to play.
	ErrInsufficientSeats = errors.New("poker: need at least two seats with chips to start a hand")
	// ErrActionDeadlinePassed is returned by Act when the current
	// seat's action deadline has already elapsed; callers should
	// invoke Tick instead to resolve the timeout.
	ErrActionDeadlinePassed = errors.New("poker: action deadline has passed, call Tick")
)
