package game

import "errors"

var (
	// ErrValidation marks a malformed or out-of-range client command. It is
	// reported to the originating connection only; room state is unaffected.
	ErrValidation = errors.New("invalid command")

	// ErrNotOwner is returned when a mutation is attempted by a user who does
	// not own the kite. Nothing is mutated or broadcast.
	ErrNotOwner = errors.New("kite owned by another user")

	// ErrRoomState is returned for commands that require a specific room
	// status, e.g. placing a kite after the game started.
	ErrRoomState = errors.New("room status does not allow this")
)
