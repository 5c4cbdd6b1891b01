package engine

import "errors"

var (
	// ErrClientNotConfigured is returned when a turn is started without
	// a streaming client wired in.
	ErrClientNotConfigured = errors.New("streaming client not configured")

	// ErrTurnInProgress is returned when a second turn is started while
	// one is already in flight; the engine runs strictly one turn at a
	// time.
	ErrTurnInProgress = errors.New("turn already in progress")

	// ErrTurnTimeout marks a turn abandoned because its generation
	// never resolved within the deadline.
	ErrTurnTimeout = errors.New("turn generation timed out")

	// ErrNotYourTurn is returned to a caller acting out of order. It is
	// surfaced to that caller only, never broadcast.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrNoActors is returned when the schedule is empty.
	ErrNoActors = errors.New("no actors registered")
)
