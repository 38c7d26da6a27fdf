package conversation

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted
	// in the current state.
	ErrInvalidTransition = errors.New("invalid conversation transition")

	// ErrInvalidState is returned when a state is not a known
	// conversation state.
	ErrInvalidState = errors.New("invalid conversation state")
)
