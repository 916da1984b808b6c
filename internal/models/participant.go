// internal/models/participant.go
package models

// Participant is one player inside a lobby. All fields are owned by the
// lobby and mutated only while the lobby mutex is held.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsReady     bool   `json:"is_ready"`
	IsHost      bool   `json:"is_host"`
	Score       int    `json:"score"`

	// ThemeVote is the color theme this participant currently votes for,
	// empty if no vote has been cast this round.
	ThemeVote string `json:"-"`

	// DrawingVote is the drawing ID this participant currently votes for,
	// empty if none.
	DrawingVote string `json:"-"`

	// DrawingID references the drawing submitted this round, empty if the
	// participant has not submitted yet. Resolved through the lobby's
	// drawings list, never held as a pointer.
	DrawingID string `json:"-"`
}

// Spectator is a viewer admitted to a full lobby when spectators are allowed.
// Spectators receive broadcasts but hold no game state.
type Spectator struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ResetRound clears the per-round state after a game ends. Scores persist
// across rounds.
func (p *Participant) ResetRound() {
	p.IsReady = false
	p.ThemeVote = ""
	p.DrawingVote = ""
	p.DrawingID = ""
}

// HasSubmitted reports whether the participant submitted a drawing this round.
func (p *Participant) HasSubmitted() bool {
	return p.DrawingID != ""
}
