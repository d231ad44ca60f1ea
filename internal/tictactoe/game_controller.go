package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-canvas/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
)

// Seat is the participant position in a match.
type Seat int

const (
	SeatFirst Seat = iota
	SeatSecond
)

func (that Seat) Other() Seat {
	if that == SeatFirst {
		return SeatSecond
	}
	return SeatFirst
}

func (that Seat) Mark() entity.Mark {
	if that == SeatFirst {
		return entity.MarkFirst
	}
	return entity.MarkSecond
}

func (that Seat) String() string {
	if that == SeatFirst {
		return "first"
	}
	return "second"
}

// SeatOf maps a placed mark back to the seat that owns it.
func SeatOf(mark entity.Mark) Seat {
	switch mark {
	case entity.MarkFirst:
		return SeatFirst
	case entity.MarkSecond:
		return SeatSecond
	default:
		panic("tictactoe: no seat owns an empty mark")
	}
}

type Status int

const (
	StatusTurn Status = iota
	StatusWon
	StatusDrawn
)

func (that Status) String() string {
	switch that {
	case StatusWon:
		return "won"
	case StatusDrawn:
		return "drawn"
	default:
		return "ongoing"
	}
}

// Move describes an accepted commit.
type Move struct {
	Seat    Seat
	Cell    int
	Mark    entity.Mark
	Outcome entity.Outcome
}

// GameController is the turn state machine of one match. It is not safe for
// concurrent use; the owning session serializes access.
type GameController struct {
	board   entity.Board
	turn    Seat
	cursor  int
	status  Status
	outcome entity.Outcome
}

func NewGameController() *GameController {
	return &GameController{
		turn:    SeatFirst,
		cursor:  entity.CenterCell,
		status:  StatusTurn,
		outcome: entity.Outcome{Result: entity.ResultOngoing, Line: entity.NoLine},
	}
}

func (that *GameController) Board() entity.Board {
	return that.board
}

func (that *GameController) Turn() Seat {
	return that.turn
}

func (that *GameController) Cursor() int {
	return that.cursor
}

func (that *GameController) Status() Status {
	return that.status
}

func (that *GameController) Outcome() entity.Outcome {
	return that.outcome
}

func (that *GameController) IsTerminal() bool {
	return that.status != StatusTurn
}

// Winner returns the winning seat. Only valid in StatusWon.
func (that *GameController) Winner() (Seat, bool) {
	if that.status != StatusWon {
		return SeatFirst, false
	}
	return SeatOf(that.outcome.Mark), true
}

// Navigate moves the cursor for the seat on turn. A move off the grid leaves the
// cursor where it is and reports moved == false.
func (that *GameController) Navigate(seat Seat, dir entity.Direction) (bool, error) {
	if err := that.validateSeat(seat); err != nil {
		return false, err
	}

	next, moved := entity.Step(that.cursor, dir)
	that.cursor = next

	return moved, nil
}

// Commit places the seat's mark under the cursor and advances the machine.
func (that *GameController) Commit(seat Seat) (Move, error) {
	if err := that.validateSeat(seat); err != nil {
		return Move{}, err
	}

	cell := that.cursor
	mark := seat.Mark()

	if err := that.board.Apply(cell, mark); err != nil {
		return Move{}, err
	}

	outcome := that.board.Evaluate()
	that.outcome = outcome

	switch outcome.Result {
	case entity.ResultLine:
		that.status = StatusWon
	case entity.ResultDraw:
		that.status = StatusDrawn
	default:
		that.turn = seat.Other()
		that.cursor = entity.CenterCell
	}

	return Move{Seat: seat, Cell: cell, Mark: mark, Outcome: outcome}, nil
}

// Controls reports the buttons for the seat on turn at the current cursor.
func (that *GameController) Controls() entity.Controls {
	if that.IsTerminal() {
		return entity.Controls{}
	}

	row, col := that.cursor/entity.BoardSide, that.cursor%entity.BoardSide

	return entity.Controls{
		Left:  col > 0,
		Down:  row < entity.BoardSide-1,
		Up:    row > 0,
		Right: col < entity.BoardSide-1,
		Send:  !that.board.IsOccupied(that.cursor),
	}
}

// validateSeat - checks that the game is still running and the seat is on turn.
func (that *GameController) validateSeat(seat Seat) error {
	if that.IsTerminal() {
		return apperror.ErrGameFinished
	}

	if seat != that.turn {
		return apperror.ErrNotYourTurn
	}

	return nil
}
