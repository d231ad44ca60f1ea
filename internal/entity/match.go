package entity

import "time"

const (
	MatchResultWin  = "win"
	MatchResultDraw = "draw"
)

// MatchRecord is the archived summary of a finished match.
type MatchRecord struct {
	ID         string            `json:"id"`
	First      Participant       `json:"first"`
	Second     Participant       `json:"second"`
	Result     string            `json:"result"`
	WinnerID   string            `json:"winner_id,omitempty"`
	Line       Line              `json:"line"`
	Board      [BoardSize]string `json:"board"`
	FinishedAt time.Time         `json:"finished_at"`
}

func (that *MatchRecord) IsDraw() bool {
	return that.Result == MatchResultDraw
}
