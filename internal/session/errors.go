package session

import "errors"

var (
	// ErrRoomNotFound is returned when no live session has the requested code
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotAuthorized is returned when a facilitator-only operation comes from anyone else
	ErrNotAuthorized = errors.New("not authorized")
	// ErrGameAlreadyStarted is returned when joining or starting outside the lobby
	ErrGameAlreadyStarted = errors.New("game already in progress")
	// ErrInsufficientPlayers is returned when starting with fewer than game.MinPlayers
	ErrInsufficientPlayers = errors.New("not enough players")
	// ErrInvalidName is returned when joining with a blank display name
	ErrInvalidName = errors.New("name is required")
)
