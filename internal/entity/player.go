package entity

// Participant is one side of a match.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
