// internal/handlers/server.go
package handlers

import (
	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/drawdash/drawdash/internal/config"
	"github.com/drawdash/drawdash/internal/game"
	"github.com/drawdash/drawdash/internal/models"
)

// GameServer aggregates the lobby registry and connection registry and wires
// lobby effect callbacks to the transport layer.
type GameServer struct {
	Lobbies *game.LobbyStore
	Conns   *ConnRegistry
	Clock   clock.Clock
	Logger  *logrus.Logger
	Config  config.Config
}

func NewGameServer(cfg config.Config, clk clock.Clock, logger *logrus.Logger) *GameServer {
	return &GameServer{
		Lobbies: game.NewLobbyStore(),
		Conns:   NewConnRegistry(),
		Clock:   clk,
		Logger:  logger,
		Config:  cfg,
	}
}

// NewLobby creates a lobby with its callbacks bound to this server's
// connection registry and registers it.
func (gs *GameServer) NewLobby(settings models.Settings) *game.Lobby {
	l := game.NewLobby(settings, gs.Clock, gs.Logger)

	l.BroadcastFn = func(frame game.Frame) {
		for _, c := range gs.Conns.InLobby(l.ID) {
			c.Send(frame)
		}
	}
	l.NotifyFn = func(playerID string, frame game.Frame) {
		if c, ok := gs.Conns.Get(playerID); ok {
			c.Send(frame)
		}
	}
	l.OnEmpty = func(lobbyID string) {
		gs.Lobbies.Delete(lobbyID)
		gs.Logger.Infof("Lobby %s removed (empty)", lobbyID)
		gs.BroadcastLobbyList()
	}
	// Fired with the lobby lock held; the list broadcast re-reads every
	// lobby's summary under its own lock, so it must run asynchronously.
	l.OnListChanged = func() { go gs.BroadcastLobbyList() }
	l.OnEvicted = func(playerID string) {
		gs.Conns.SetLobby(playerID, "")
	}

	gs.Lobbies.Add(l)
	return l
}

// BroadcastLobbyList pushes the joinable-lobby list to every connected
// client, in or out of a lobby, so browsers stay current without polling.
func (gs *GameServer) BroadcastLobbyList() {
	frame := game.Frame{
		"type": "lobby_list",
		"data": gs.Lobbies.Joinable(),
	}
	for _, c := range gs.Conns.All() {
		c.Send(frame)
	}
}

// DropClient removes a client from its lobby (if any) and from the registry.
// Called once per connection, after the read pump exits.
func (gs *GameServer) DropClient(playerID string) {
	if lobbyID, ok := gs.Conns.LobbyOf(playerID); ok {
		if l, exists := gs.Lobbies.Get(lobbyID); exists {
			l.RemovePlayer(playerID)
		}
	}
	gs.Conns.Remove(playerID)
}
