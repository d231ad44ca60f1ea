package usecase

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/canvas"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/tictactoe"
)

// TurnResult is what a session hands back to the interaction layer after a request.
// Render canvases are fresh copies and must be treated as read-only.
type TurnResult struct {
	SessionID string
	// Seq counts the accepted requests of the session. Renders of a later request
	// always carry a larger Seq.
	Seq    uint64
	First  entity.Participant
	Second entity.Participant
	Status tictactoe.Status
	Outcome   entity.Outcome
	// Turn is the participant to move next while the game is running.
	Turn entity.Participant
	// Winner is set only when the game was won.
	Winner *entity.Participant

	Renders []entity.Render
	// Spectator is the public board. It is set when the board changed or the match
	// started.
	Spectator *entity.Render

	// Ignored holds the reason a request changed nothing (off-turn, occupied cell,
	// finished game). Such results carry no renders.
	Ignored error
}

func (that *TurnResult) IsFinished() bool {
	return that.Ignored == nil && that.Status != tictactoe.StatusTurn
}

func (that *TurnResult) RenderFor(participantID string) (entity.Render, bool) {
	for _, render := range that.Renders {
		if render.ParticipantID == participantID {
			return render, true
		}
	}

	return entity.Render{}, false
}

// SessionInfo is a read-only summary of a live session.
type SessionInfo struct {
	ID        string                   `json:"id"`
	First     entity.Participant       `json:"first"`
	Second    entity.Participant       `json:"second"`
	Turn      string                   `json:"turn"`
	Board     [entity.BoardSize]string `json:"board"`
	StartedAt time.Time                `json:"started_at"`
}

// GameSession is one match between two participants. Every request holds the
// session lock while it validates, mutates and renders.
type GameSession struct {
	ID        string
	First     entity.Participant
	Second    entity.Participant
	StartedAt time.Time

	mu         sync.Mutex
	seq        uint64
	controller *tictactoe.GameController
	canvas     *image.RGBA
	sprites    *canvas.Sprites
}

func newGameSession(id string, first, second entity.Participant, template *image.RGBA, sprites *canvas.Sprites) *GameSession {
	return &GameSession{
		ID:         id,
		First:      first,
		Second:     second,
		StartedAt:  time.Now().UTC(),
		controller: tictactoe.NewGameController(),
		canvas:     canvas.Clone(template),
		sprites:    sprites,
	}
}

func (that *GameSession) Participant(seat tictactoe.Seat) entity.Participant {
	if seat == tictactoe.SeatFirst {
		return that.First
	}
	return that.Second
}

// InitialRenders returns the renders of the present state without changing
// anything. At match start that is the first mover's prompt and the second's view.
func (that *GameSession) InitialRenders() *TurnResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.resultLocked()
}

// SpectatorRender is the public board: no cursor, every control disabled.
func (that *GameSession) SpectatorRender() entity.Render {
	that.mu.Lock()
	defer that.mu.Unlock()

	return entity.Render{Canvas: that.boardLocked()}
}

func (that *GameSession) Info() SessionInfo {
	that.mu.Lock()
	defer that.mu.Unlock()

	board := that.controller.Board()
	info := SessionInfo{
		ID:        that.ID,
		First:     that.First,
		Second:    that.Second,
		Board:     board.Strings(),
		StartedAt: that.StartedAt,
	}

	if !that.controller.IsTerminal() {
		info.Turn = that.Participant(that.controller.Turn()).ID
	}

	return info
}

// RequestNavigate moves the cursor of the participant on turn and returns the
// participant's new prompt.
func (that *GameSession) RequestNavigate(participantID string, dir entity.Direction) *TurnResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	seat, ok := that.seatOf(participantID)
	if !ok {
		return that.ignoredLocked(fmt.Errorf("%w: participant %s", apperror.ErrSessionNotFound, participantID))
	}

	if _, err := that.controller.Navigate(seat, dir); err != nil {
		return that.ignoredLocked(err)
	}
	that.seq++

	result := that.headerLocked()
	result.Renders = []entity.Render{that.promptLocked()}

	return result
}

// RequestCommit places the participant's mark under the cursor. The result holds
// the renders for both participants, or the final board when the game ended.
func (that *GameSession) RequestCommit(participantID string) *TurnResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	seat, ok := that.seatOf(participantID)
	if !ok {
		return that.ignoredLocked(fmt.Errorf("%w: participant %s", apperror.ErrSessionNotFound, participantID))
	}

	move, err := that.controller.Commit(seat)
	if err != nil {
		return that.ignoredLocked(err)
	}

	canvas.BlitMark(that.canvas, move.Cell, that.sprites.Mark(move.Mark))
	that.seq++

	return that.resultLocked()
}

// Record builds the archive entry of a finished session.
func (that *GameSession) Record() *entity.MatchRecord {
	that.mu.Lock()
	defer that.mu.Unlock()

	board := that.controller.Board()
	record := &entity.MatchRecord{
		ID:         that.ID,
		First:      that.First,
		Second:     that.Second,
		Result:     entity.MatchResultDraw,
		Line:       entity.NoLine,
		Board:      board.Strings(),
		FinishedAt: time.Now().UTC(),
	}

	if seat, ok := that.controller.Winner(); ok {
		record.Result = entity.MatchResultWin
		record.WinnerID = that.Participant(seat).ID
		record.Line = that.controller.Outcome().Line
	}

	return record
}

func (that *GameSession) seatOf(participantID string) (tictactoe.Seat, bool) {
	switch participantID {
	case that.First.ID:
		return tictactoe.SeatFirst, true
	case that.Second.ID:
		return tictactoe.SeatSecond, true
	default:
		return tictactoe.SeatFirst, false
	}
}

func (that *GameSession) headerLocked() *TurnResult {
	result := &TurnResult{
		SessionID: that.ID,
		Seq:       that.seq,
		First:     that.First,
		Second:    that.Second,
		Status:    that.controller.Status(),
		Outcome:   that.controller.Outcome(),
	}

	if seat, ok := that.controller.Winner(); ok {
		winner := that.Participant(seat)
		result.Winner = &winner
	}

	if !that.controller.IsTerminal() {
		result.Turn = that.Participant(that.controller.Turn())
	}

	return result
}

func (that *GameSession) ignoredLocked(reason error) *TurnResult {
	result := that.headerLocked()
	result.Ignored = reason

	return result
}

// resultLocked renders the state for both participants and spectators.
func (that *GameSession) resultLocked() *TurnResult {
	result := that.headerLocked()
	board := that.boardLocked()
	result.Spectator = &entity.Render{Canvas: board}

	if that.controller.IsTerminal() {
		result.Renders = []entity.Render{
			{ParticipantID: that.First.ID, Canvas: board},
			{ParticipantID: that.Second.ID, Canvas: board},
		}

		return result
	}

	waiting := that.Participant(that.controller.Turn().Other())
	result.Renders = []entity.Render{
		that.promptLocked(),
		{ParticipantID: waiting.ID, Canvas: board},
	}

	return result
}

// promptLocked is the view of the participant on turn: the cursor outline drawn on
// a copy of the persisted canvas.
func (that *GameSession) promptLocked() entity.Render {
	display := canvas.Clone(that.canvas)
	canvas.DrawSelectionOutline(display, that.controller.Cursor(), canvas.HighlightColor)

	return entity.Render{
		ParticipantID: that.Participant(that.controller.Turn()).ID,
		Canvas:        display,
		Controls:      that.controller.Controls(),
		Active:        true,
	}
}

// boardLocked is a copy of the persisted canvas with the strike of a won game.
func (that *GameSession) boardLocked() *image.RGBA {
	display := canvas.Clone(that.canvas)

	if outcome := that.controller.Outcome(); outcome.Result == entity.ResultLine {
		canvas.BlendOverlay(display, that.sprites.Overlay(outcome.Line), outcome.Line)
	}

	return display
}
