// internal/models/settings.go
package models

import "fmt"

// Bounds for the numeric settings. All durations are in seconds.
const (
	MinPlayersFloor = 2
	MaxPlayersCeil  = 20

	ThemeVotingTimeMin = 10
	ThemeVotingTimeMax = 300

	DrawingTimeMin = 10
	DrawingTimeMax = 259200 // 72h, long-form lobbies

	VoteTimeMin = 10
	VoteTimeMax = 300

	ShowcaseTimeMin = 3
	ShowcaseTimeMax = 30
)

// Settings holds the host-configurable lobby behavior. Mutable only by the
// host and only while the lobby is waiting for players.
type Settings struct {
	MaxPlayers      int      `json:"max_players"`
	MinPlayers      int      `json:"min_players"`
	ThemeVotingTime int      `json:"theme_voting_time"` // seconds
	DrawingTime     int      `json:"drawing_time"`      // seconds
	VoteTime        int      `json:"vote_time"`         // seconds per drawing in the voting phase
	ShowcaseTime    int      `json:"showcase_time"`     // seconds per drawing in the showcase, also the post-game settle
	AllowSpectators bool     `json:"allow_spectators"`
	PrivateLobby    bool     `json:"private_lobby"`
	Password        string   `json:"-"` // never serialised; snapshots carry has_password
	CustomPrompts   []string `json:"custom_prompts"`
	ChatEnabled     bool     `json:"chat_enabled"`
	AutoStart       bool     `json:"auto_start"`
	WinnerTakesAll  bool     `json:"winner_takes_all"`
}

// DefaultSettings returns the settings a new lobby starts with.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:      8,
		MinPlayers:      2,
		ThemeVotingTime: 30,
		DrawingTime:     120,
		VoteTime:        10,
		ShowcaseTime:    10,
		AllowSpectators: false,
		PrivateLobby:    false,
		CustomPrompts:   nil,
		ChatEnabled:     true,
		AutoStart:       false,
		WinnerTakesAll:  false,
	}
}

// intField pulls an integer out of a decoded JSON patch. JSON numbers decode
// as float64; accept int as well for direct callers.
func intField(patch map[string]interface{}, key string) (int, bool) {
	val, exists := patch[key]
	if !exists || val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func boolField(patch map[string]interface{}, key string) (bool, bool) {
	val, exists := patch[key]
	if !exists || val == nil {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// ApplyPatch applies a partial settings update. Fields outside their
// permitted bounds are ignored silently rather than failing the whole patch.
// The one structural check that depends on live lobby state is max_players:
// lowering it below playerCount would orphan seated players, so that patch is
// rejected outright. Returns whether anything changed.
func (s *Settings) ApplyPatch(patch map[string]interface{}, playerCount int) (bool, error) {
	changed := false

	if v, ok := intField(patch, "max_players"); ok {
		if v < playerCount {
			return changed, fmt.Errorf("max_players cannot be set below the current player count (%d)", playerCount)
		}
		if v >= MinPlayersFloor && v <= MaxPlayersCeil && v != s.MaxPlayers {
			s.MaxPlayers = v
			changed = true
			if s.MinPlayers > s.MaxPlayers {
				s.MinPlayers = s.MaxPlayers
			}
		}
	}
	if v, ok := intField(patch, "min_players"); ok {
		if v >= MinPlayersFloor && v <= s.MaxPlayers && v != s.MinPlayers {
			s.MinPlayers = v
			changed = true
		}
	}
	if v, ok := intField(patch, "theme_voting_time"); ok {
		if v >= ThemeVotingTimeMin && v <= ThemeVotingTimeMax && v != s.ThemeVotingTime {
			s.ThemeVotingTime = v
			changed = true
		}
	}
	if v, ok := intField(patch, "drawing_time"); ok {
		if v >= DrawingTimeMin && v <= DrawingTimeMax && v != s.DrawingTime {
			s.DrawingTime = v
			changed = true
		}
	}
	if v, ok := intField(patch, "vote_time"); ok {
		if v >= VoteTimeMin && v <= VoteTimeMax && v != s.VoteTime {
			s.VoteTime = v
			changed = true
		}
	}
	if v, ok := intField(patch, "showcase_time"); ok {
		if v >= ShowcaseTimeMin && v <= ShowcaseTimeMax && v != s.ShowcaseTime {
			s.ShowcaseTime = v
			changed = true
		}
	}

	if v, ok := boolField(patch, "allow_spectators"); ok && v != s.AllowSpectators {
		s.AllowSpectators = v
		changed = true
	}
	if v, ok := boolField(patch, "private_lobby"); ok && v != s.PrivateLobby {
		s.PrivateLobby = v
		changed = true
	}
	if v, ok := boolField(patch, "chat_enabled"); ok && v != s.ChatEnabled {
		s.ChatEnabled = v
		changed = true
	}
	if v, ok := boolField(patch, "auto_start"); ok && v != s.AutoStart {
		s.AutoStart = v
		changed = true
	}
	if v, ok := boolField(patch, "winner_takes_all"); ok && v != s.WinnerTakesAll {
		s.WinnerTakesAll = v
		changed = true
	}

	if val, exists := patch["password"]; exists {
		if pw, ok := val.(string); ok && pw != s.Password {
			s.Password = pw
			changed = true
		}
	}

	if val, exists := patch["custom_prompts"]; exists && val != nil {
		// A non-list value here is a type error, not a bounds issue.
		list, ok := val.([]interface{})
		if !ok {
			return changed, fmt.Errorf("custom_prompts must be a list of strings")
		}
		prompts := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok && str != "" {
				prompts = append(prompts, str)
			}
		}
		s.CustomPrompts = prompts
		changed = true
	}

	return changed, nil
}

// Public is the password-free view of Settings carried in snapshots.
func (s Settings) Public() map[string]interface{} {
	prompts := s.CustomPrompts
	if prompts == nil {
		prompts = []string{}
	}
	return map[string]interface{}{
		"max_players":       s.MaxPlayers,
		"min_players":       s.MinPlayers,
		"theme_voting_time": s.ThemeVotingTime,
		"drawing_time":      s.DrawingTime,
		"vote_time":         s.VoteTime,
		"showcase_time":     s.ShowcaseTime,
		"allow_spectators":  s.AllowSpectators,
		"private_lobby":     s.PrivateLobby,
		"has_password":      s.Password != "",
		"custom_prompts":    prompts,
		"chat_enabled":      s.ChatEnabled,
		"auto_start":        s.AutoStart,
		"winner_takes_all":  s.WinnerTakesAll,
	}
}
