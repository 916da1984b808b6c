// internal/game/lobby_store.go
package game

import "sync"

// LobbySummary is the public listing entry for a lobby.
type LobbySummary struct {
	ID           string `json:"id"`
	HostID       string `json:"host_id"`
	PlayerCount  int    `json:"player_count"`
	MaxPlayers   int    `json:"max_players"`
	Status       Status `json:"status"`
	CreatedAt    int64  `json:"created_at"`
	PrivateLobby bool   `json:"private_lobby"`
	HasPassword  bool   `json:"has_password"`
}

// LobbyStore is the in-memory lobby registry. Safe for concurrent use; the
// store lock covers only the map, never an individual lobby's state.
type LobbyStore struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby
}

func NewLobbyStore() *LobbyStore {
	return &LobbyStore{lobbies: make(map[string]*Lobby)}
}

func (s *LobbyStore) Add(l *Lobby) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[l.ID] = l
}

func (s *LobbyStore) Get(id string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	return l, ok
}

func (s *LobbyStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
}

// All returns a point-in-time copy of every lobby.
func (s *LobbyStore) All() []*Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		out = append(out, l)
	}
	return out
}

// Joinable returns listing entries for every lobby currently accepting
// players. Private lobbies are listed too; their private_lobby and
// has_password flags tell clients what a join will take.
func (s *LobbyStore) Joinable() []LobbySummary {
	out := make([]LobbySummary, 0)
	for _, l := range s.All() {
		summary := l.Summary()
		if summary.Status != StatusWaitingForPlayers {
			continue
		}
		out = append(out, summary)
	}
	return out
}
