package apperror

import "errors"

var (
	ErrAlreadyInGame    = errors.New("participant is already in game")
	ErrSessionNotFound  = errors.New("session not found")
	ErrGameFinished     = errors.New("game is already finished")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrNotImplemented   = errors.New("not implemented")
)
