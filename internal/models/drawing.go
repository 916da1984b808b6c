// internal/models/drawing.go
package models

// Drawing is a submitted drawing. The payload is opaque to the server; it is
// stored and re-broadcast verbatim.
type Drawing struct {
	ID         string `json:"id"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Data       string `json:"data"`
	Prompt     string `json:"prompt"`
	Votes      int    `json:"votes"`

	// Voters holds the IDs of participants whose current drawing vote targets
	// this drawing. Only meaningful during the voting phase; exposed in the
	// current_voting part of the snapshot.
	Voters map[string]struct{} `json:"-"`
}

// VoterIDs returns the live voter set as a slice for serialisation.
func (d *Drawing) VoterIDs() []string {
	ids := make([]string, 0, len(d.Voters))
	for id := range d.Voters {
		ids = append(ids, id)
	}
	return ids
}
