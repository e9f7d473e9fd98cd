package errors

import "errors"

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrRoomNotFound      = errors.New("review room not found")
	ErrNotOwner          = errors.New("only the room owner can change the game")
	ErrNotSynced         = errors.New("review session is not synced")
	ErrNotConnected      = errors.New("game server is not connected")
	ErrConnectionLost    = errors.New("connection to game server lost")
	ErrClientClosed      = errors.New("game client closed")
	ErrMalformedResponse = errors.New("malformed response")
	ErrEngineFailure     = errors.New("engine returned failure")
	ErrGameNotFound      = errors.New("game not found")
	ErrNoActiveGame      = errors.New("no active game")
	ErrMalformedRequest  = errors.New("malformed request")
	ErrInvalidState      = errors.New("invalid game tree state")
)
