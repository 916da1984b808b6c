// internal/game/snapshot.go
package game

import "github.com/drawdash/drawdash/internal/models"

// snapshotUnsafe assembles the full client-facing lobby document. Fields that
// only mean something in a particular phase are present only in that phase;
// the password never leaves the server. Everything in the document is copied
// out of the lobby state: frames are marshaled after the lock is released, so
// a snapshot must not alias anything a later action can mutate.
func (l *Lobby) snapshotUnsafe() Frame {
	players := make(map[string]interface{}, len(l.players))
	for _, p := range l.players {
		players[p.ID] = map[string]interface{}{
			"display_name":  p.DisplayName,
			"is_ready":      p.IsReady,
			"is_host":       p.IsHost,
			"score":         p.Score,
			"has_submitted": p.HasSubmitted(),
		}
	}

	spectators := make([]interface{}, 0, len(l.spectators))
	for _, s := range l.spectators {
		spectators = append(spectators, map[string]interface{}{
			"id":           s.ID,
			"display_name": s.DisplayName,
		})
	}

	snap := Frame{
		"id":                   l.ID,
		"host_id":              l.HostID,
		"players":              players,
		"spectators":           spectators,
		"player_count":         len(l.players),
		"settings":             l.Settings.Public(),
		"game_status":          string(l.Status),
		"phase_time_remaining": l.phaseRemainingUnsafe(),
		"created_at":           l.CreatedAt.Unix(),
	}

	switch l.Status {
	case StatusThemeVoting:
		snap["theme_options"] = l.themeOptions
		snap["theme_votes"] = l.themeTallyUnsafe()
		snap["player_theme_votes"] = l.playerThemeVotesUnsafe()

	case StatusDrawing:
		snap["color_theme"] = l.chosenTheme
		snap["prompt"] = l.prompt

	case StatusVotingForDrawings:
		snap["color_theme"] = l.chosenTheme
		snap["prompt"] = l.prompt
		snap["drawings"] = l.drawingListUnsafe()
		snap["player_drawing_votes"] = l.playerDrawingVotesUnsafe()
		if current := l.currentVotingDrawingUnsafe(); current != nil {
			snap["current_voting"] = map[string]interface{}{
				"drawing":        drawingView(current),
				"voters":         current.VoterIDs(),
				"time_remaining": l.phaseRemainingUnsafe(),
			}
		}

	case StatusShowcasingResults:
		snap["color_theme"] = l.chosenTheme
		snap["prompt"] = l.prompt
		snap["drawings"] = l.drawingListUnsafe()
		snap["showcase_index"] = l.showcaseIndex

	case StatusEnded:
		snap["color_theme"] = l.chosenTheme
		snap["prompt"] = l.prompt
		snap["drawings"] = l.drawingListUnsafe()
	}

	return snap
}

func (l *Lobby) themeTallyUnsafe() map[string]int {
	tally := make(map[string]int, len(l.themeOptions))
	for _, opt := range l.themeOptions {
		tally[opt] = l.themeVotes[opt]
	}
	return tally
}

func (l *Lobby) playerThemeVotesUnsafe() map[string]string {
	votes := make(map[string]string)
	for _, p := range l.players {
		if p.ThemeVote != "" {
			votes[p.ID] = p.ThemeVote
		}
	}
	return votes
}

func (l *Lobby) playerDrawingVotesUnsafe() map[string]string {
	votes := make(map[string]string)
	for _, p := range l.players {
		if p.DrawingVote != "" {
			votes[p.ID] = p.DrawingVote
		}
	}
	return votes
}

func (l *Lobby) drawingListUnsafe() []interface{} {
	list := make([]interface{}, 0, len(l.drawings))
	for _, d := range l.drawings {
		list = append(list, drawingView(d))
	}
	return list
}

// drawingView copies a drawing into a plain document, so the snapshot stays
// fixed when the live drawing's tally moves on.
func drawingView(d *models.Drawing) map[string]interface{} {
	return map[string]interface{}{
		"id":          d.ID,
		"player_id":   d.PlayerID,
		"player_name": d.PlayerName,
		"data":        d.Data,
		"prompt":      d.Prompt,
		"votes":       d.Votes,
	}
}
