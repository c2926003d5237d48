package model

import "errors"

// Common errors used across the application. None of these are fatal to
// the server; they surface to the single client that triggered them.
var (
	// Room errors
	ErrRoomNotFound  = errors.New("room not found")
	ErrDuplicateRoom = errors.New("room already exists")
	ErrRoomCompleted = errors.New("room is completed")
	ErrRoomNotActive = errors.New("room is not active")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotYourTurn    = errors.New("not this player's turn")

	// Gateway errors
	ErrInvalidPayload = errors.New("invalid payload")

	// Archive errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSummaryNotFound  = errors.New("summary not found")
)
