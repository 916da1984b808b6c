// internal/handlers/client.go
package handlers

import (
	"context"
	"sync"

	"github.com/drawdash/drawdash/internal/game"
)

// outChanSize bounds the per-client outbound queue. A client that cannot
// drain this many frames is treated as dead and disconnected.
const outChanSize = 64

// Client is one live WebSocket connection. PlayerID doubles as the client's
// identity inside whatever lobby it joins. Name and LobbyID are guarded by
// the registry lock, not a per-client lock.
type Client struct {
	PlayerID string
	Name     string
	LobbyID  string
	OutChan  chan game.Frame
	Cancel   context.CancelFunc
}

// ConnRegistry tracks every live connection and its lobby binding. The
// registry lock covers the map and the Name/LobbyID fields of its clients.
type ConnRegistry struct {
	mu      sync.Mutex
	clients map[string]*Client // keyed by PlayerID
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{clients: make(map[string]*Client)}
}

func (r *ConnRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.PlayerID] = c
}

func (r *ConnRegistry) Remove(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, playerID)
}

func (r *ConnRegistry) Get(playerID string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[playerID]
	return c, ok
}

// SetName records the display name the client joined with.
func (r *ConnRegistry) SetName(playerID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[playerID]; ok {
		c.Name = name
	}
}

// SetLobby binds a client to a lobby; empty unbinds.
func (r *ConnRegistry) SetLobby(playerID, lobbyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[playerID]; ok {
		c.LobbyID = lobbyID
	}
}

// LobbyOf returns the lobby the client is currently bound to, if any.
func (r *ConnRegistry) LobbyOf(playerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[playerID]
	if !ok || c.LobbyID == "" {
		return "", false
	}
	return c.LobbyID, true
}

// InLobby returns the clients currently bound to a lobby.
func (r *ConnRegistry) InLobby(lobbyID string) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0)
	for _, c := range r.clients {
		if c.LobbyID == lobbyID {
			out = append(out, c)
		}
	}
	return out
}

// All returns every live client.
func (r *ConnRegistry) All() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Send enqueues a frame without blocking. On overflow the client's context
// is cancelled, which tears down both pumps and triggers lobby cleanup.
func (c *Client) Send(frame game.Frame) {
	select {
	case c.OutChan <- frame:
	default:
		if c.Cancel != nil {
			c.Cancel()
		}
	}
}
