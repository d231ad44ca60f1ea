package entity

import "image"

// Controls reports which of the five buttons are enabled.
type Controls struct {
	Left  bool `json:"left"`
	Down  bool `json:"down"`
	Up    bool `json:"up"`
	Right bool `json:"right"`
	Send  bool `json:"send"`
}

// Render is what a participant should currently see.
type Render struct {
	ParticipantID string
	Canvas        *image.RGBA
	Controls      Controls
	// Active is set on the prompt shown to the participant on turn.
	Active bool
}
