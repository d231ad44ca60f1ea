package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/canvas"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/usecase"
)

const (
	actionConnect  = "connect"
	actionPlay     = "game:play"
	actionMove     = "game:move"
	actionSend     = "game:send"
	actionStop     = "game:stop"
	actionSpectate = "game:spectate"
	actionBoard    = "game:board"
	actionWaiting  = "game:waiting"
	actionStarted  = "game:started"
	actionTurn     = "game:turn"
	actionFinished = "game:finished"
	actionError    = "error"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player    *entity.Participant `json:"player,omitempty"`
	Direction string              `json:"direction,omitempty"`
	Game      *GameView           `json:"game,omitempty"`
	// Board is the rendered canvas as a base64 PNG.
	Board    string           `json:"board,omitempty"`
	Controls *entity.Controls `json:"controls,omitempty"`
	Active   bool             `json:"active,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type GameView struct {
	ID string `json:"id"`
	// Seq orders updates of one game. A client drops a frame older than the last one
	// it showed.
	Seq    uint64             `json:"seq"`
	First  entity.Participant `json:"first"`
	Second entity.Participant `json:"second"`
	Status string             `json:"status"`
	Turn   string             `json:"turn,omitempty"`
	Winner string             `json:"winner,omitempty"`
	Line   *entity.Line       `json:"line,omitempty"`
}

func newGameView(result *usecase.TurnResult) *GameView {
	view := &GameView{
		ID:     result.SessionID,
		Seq:    result.Seq,
		First:  result.First,
		Second: result.Second,
		Status: result.Status.String(),
		Turn:   result.Turn.ID,
	}

	if result.Winner != nil {
		view.Winner = result.Winner.ID
		line := result.Outcome.Line
		view.Line = &line
	}

	return view
}

// renderPayload turns a participant's render into the wire payload.
func renderPayload(result *usecase.TurnResult, render entity.Render) (Payload, error) {
	board, err := canvas.EncodePNG(render.Canvas)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to encode board: %w", err)
	}

	controls := render.Controls

	return Payload{
		Game:     newGameView(result),
		Board:    base64.StdEncoding.EncodeToString(board),
		Controls: &controls,
		Active:   render.Active,
	}, nil
}

func encodeMessage(action string, payload Payload) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &Message{Action: action, Payload: raw}, nil
}
