package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/apperror"
)

// Mark is the content of a single board cell.
type Mark int

const (
	MarkEmpty Mark = iota
	MarkFirst
	MarkSecond
)

func (that Mark) String() string {
	switch that {
	case MarkFirst:
		return "X"
	case MarkSecond:
		return "O"
	default:
		return ""
	}
}

// Line identifies one of the eight winning triples. The numbering is stable and is
// also used to pick the strike overlay.
type Line int

const (
	LineTopRow Line = iota
	LineMiddleRow
	LineBottomRow
	LineLeftColumn
	LineCenterColumn
	LineRightColumn
	LineMainDiagonal
	LineAntiDiagonal

	NoLine Line = -1
)

const (
	BoardSize  = 9
	BoardSide  = 3
	CenterCell = 4
)

var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func (that Line) IsRow() bool {
	return that >= LineTopRow && that <= LineBottomRow
}

func (that Line) IsColumn() bool {
	return that >= LineLeftColumn && that <= LineRightColumn
}

func (that Line) IsDiagonal() bool {
	return that == LineMainDiagonal || that == LineAntiDiagonal
}

func (that Line) Valid() bool {
	return that >= LineTopRow && that <= LineAntiDiagonal
}

// Result is the kind of a board evaluation.
type Result int

const (
	ResultOngoing Result = iota
	ResultLine
	ResultDraw
)

func (that Result) String() string {
	switch that {
	case ResultLine:
		return "win"
	case ResultDraw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Outcome is what Evaluate reports. Mark and Line are only meaningful for ResultLine.
type Outcome struct {
	Result Result
	Mark   Mark
	Line   Line
}

func (that Outcome) IsTerminal() bool {
	return that.Result != ResultOngoing
}

// Board holds the nine cells in row-major order.
type Board [BoardSize]Mark

// Apply sets the cell to the given mark. A cell is written at most once.
func (that *Board) Apply(cell int, mark Mark) error {
	if mark == MarkEmpty {
		panic("entity: apply of an empty mark")
	}

	if !ValidCell(cell) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that[cell] != MarkEmpty {
		return apperror.ErrCellOccupied
	}

	that[cell] = mark

	return nil
}

// Evaluate checks the lines in id order and reports the first complete one.
func (that *Board) Evaluate() Outcome {
	for id, combo := range WinLines {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != MarkEmpty && a == b && b == c {
			return Outcome{Result: ResultLine, Mark: a, Line: Line(id)}
		}
	}

	if that.IsFull() {
		return Outcome{Result: ResultDraw, Line: NoLine}
	}

	return Outcome{Result: ResultOngoing, Line: NoLine}
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == MarkEmpty {
			return false
		}
	}

	return true
}

func (that *Board) IsOccupied(cell int) bool {
	return that[cell] != MarkEmpty
}

// Strings returns the board as "X", "O" and "" cells.
func (that *Board) Strings() [BoardSize]string {
	var out [BoardSize]string
	for i, cell := range that {
		out[i] = cell.String()
	}

	return out
}

func ValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}
