package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/apperror"
)

const (
	x = MarkFirst
	o = MarkSecond
	e = MarkEmpty
)

func permutations(cells [3]int) [][3]int {
	a, b, c := cells[0], cells[1], cells[2]
	return [][3]int{
		{a, b, c}, {a, c, b},
		{b, a, c}, {b, c, a},
		{c, a, b}, {c, b, a},
	}
}

func TestBoard_Apply(t *testing.T) {
	t.Run("Sets an empty cell", func(t *testing.T) {
		// Given: an empty board
		var board Board

		// When: a mark is applied to cell 4
		err := board.Apply(4, MarkFirst)

		// Then: the cell holds the mark
		require.NoError(t, err)
		assert.Equal(t, MarkFirst, board[4])
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		// Given: a board with cell 0 taken by the first mover
		var board Board
		require.NoError(t, board.Apply(0, MarkFirst))

		// When: the second mover targets the same cell
		err := board.Apply(0, MarkSecond)

		// Then: ErrCellOccupied is returned and the cell keeps its mark
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, MarkFirst, board[0])
	})

	t.Run("Error on invalid cell index", func(t *testing.T) {
		var board Board

		assert.ErrorIs(t, board.Apply(9, MarkFirst), apperror.ErrInvalidCell)
		assert.ErrorIs(t, board.Apply(-1, MarkFirst), apperror.ErrInvalidCell)
		assert.Equal(t, Board{}, board)
	})

	t.Run("Panics on empty mark", func(t *testing.T) {
		var board Board

		assert.Panics(t, func() { _ = board.Apply(0, MarkEmpty) })
	})
}

func TestBoard_Evaluate(t *testing.T) {
	t.Run("Every line is reported once its third cell is placed", func(t *testing.T) {
		for id, combo := range WinLines {
			for _, order := range permutations(combo) {
				for _, mark := range []Mark{MarkFirst, MarkSecond} {
					// Given: an empty board
					var board Board

					// When: the line's cells are placed one by one
					require.NoError(t, board.Apply(order[0], mark))
					assert.Equal(t, ResultOngoing, board.Evaluate().Result)

					require.NoError(t, board.Apply(order[1], mark))
					assert.Equal(t, ResultOngoing, board.Evaluate().Result)

					require.NoError(t, board.Apply(order[2], mark))

					// Then: the third placement reports this exact line
					assert.Equal(t, Outcome{Result: ResultLine, Mark: mark, Line: Line(id)}, board.Evaluate(),
						"line %d order %v", id, order)
				}
			}
		}
	})

	t.Run("Lowest line id wins when several lines complete at once", func(t *testing.T) {
		// Given: the top row and the left column share cell 0, which is placed last
		board := Board{
			e, x, x,
			x, o, o,
			x, o, e,
		}
		require.NoError(t, board.Apply(0, MarkFirst))

		// When: evaluating the board
		outcome := board.Evaluate()

		// Then: the top row (id 0) is reported, not the left column (id 3)
		assert.Equal(t, Outcome{Result: ResultLine, Mark: MarkFirst, Line: LineTopRow}, outcome)
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: a board that ended in a tie
		board := Board{
			x, o, x,
			o, x, o,
			o, x, o,
		}

		// When: evaluating the board
		outcome := board.Evaluate()

		// Then: it is a draw, never ongoing
		assert.Equal(t, ResultDraw, outcome.Result)
		assert.Equal(t, NoLine, outcome.Line)
		assert.True(t, outcome.IsTerminal())
	})

	t.Run("Line on the last free cell is a win, not a draw", func(t *testing.T) {
		board := Board{
			x, o, x,
			o, e, x,
			x, x, o,
		}
		require.NoError(t, board.Apply(4, MarkFirst))

		outcome := board.Evaluate()

		assert.Equal(t, ResultLine, outcome.Result)
		assert.Equal(t, LineAntiDiagonal, outcome.Line)
	})

	t.Run("Board with free cells and no line is ongoing", func(t *testing.T) {
		board := Board{
			x, o, e,
			e, x, e,
			e, e, o,
		}

		outcome := board.Evaluate()

		assert.Equal(t, ResultOngoing, outcome.Result)
		assert.False(t, outcome.IsTerminal())
	})
}

func TestLine_Classes(t *testing.T) {
	for id := LineTopRow; id <= LineAntiDiagonal; id++ {
		classes := 0
		for _, is := range []bool{id.IsRow(), id.IsColumn(), id.IsDiagonal()} {
			if is {
				classes++
			}
		}

		assert.Equal(t, 1, classes, "line %d", id)
		assert.True(t, id.Valid())
	}

	assert.False(t, NoLine.Valid())
	assert.False(t, Line(8).Valid())
}

func TestBoard_Strings(t *testing.T) {
	board := Board{x, o, e, e, e, e, e, e, e}

	assert.Equal(t, [BoardSize]string{"X", "O", "", "", "", "", "", "", ""}, board.Strings())
}
