package models

import "errors"

// Domain error taxonomy. Handlers map these to HTTP statuses with errors.Is;
// services wrap them with fmt.Errorf("...: %w", Err...) to add context.
var (
	// ErrNotFound means the lesson, teacher or draft no longer exists
	// (or the caller is not a participant and may not see it).
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the requested move is not legal from the
	// lesson's current status, including replays of an applied move.
	ErrInvalidState = errors.New("move not allowed from current status")

	// ErrUnauthorizedTransition means the move is reserved for the other actor.
	ErrUnauthorizedTransition = errors.New("actor may not perform this move")

	// ErrInvalidSchedule means a malformed or past-dated time input.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrSlotConflict means a commit-time overlap check failed; the
	// lesson is left unchanged and the caller must pick another time.
	ErrSlotConflict = errors.New("slot conflict")
)
