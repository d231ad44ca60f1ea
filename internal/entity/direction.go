package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/apperror"
)

type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

var Directions = []Direction{DirectionLeft, DirectionRight, DirectionUp, DirectionDown}

func ParseDirection(value string) (Direction, error) {
	switch dir := Direction(value); dir {
	case DirectionLeft, DirectionRight, DirectionUp, DirectionDown:
		return dir, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownDirection, value)
	}
}

// Step returns the cell reached from cursor in the given direction and whether the
// cursor actually moved. Moves off the grid are clamped.
func Step(cursor int, dir Direction) (int, bool) {
	row, col := cursor/BoardSide, cursor%BoardSide

	switch dir {
	case DirectionLeft:
		col--
	case DirectionRight:
		col++
	case DirectionUp:
		row--
	case DirectionDown:
		row++
	}

	if row < 0 || row >= BoardSide || col < 0 || col >= BoardSide {
		return cursor, false
	}

	return row*BoardSide + col, true
}
