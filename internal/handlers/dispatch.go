// internal/handlers/dispatch.go
package handlers

import (
	"github.com/drawdash/drawdash/internal/game"
	"github.com/drawdash/drawdash/internal/models"
)

// Dispatch routes one inbound frame. Called inline from the read pump, so a
// client's actions are applied in arrival order.
func (gs *GameServer) Dispatch(client *Client, frame InboundFrame) {
	action := frame.Name()
	data := frame.Data

	switch action {
	case "create_lobby":
		gs.handleCreateLobby(client, data)
	case "join_lobby":
		gs.handleJoinLobby(client, data, "")
	case "join_lobby_with_password":
		gs.handleJoinLobby(client, data, stringField(data, "password"))
	case "leave_lobby":
		gs.handleLeaveLobby(client)
	case "get_lobby_list":
		client.Send(game.Frame{
			"type": "lobby_list",
			"data": gs.Lobbies.Joinable(),
		})

	case "set_ready":
		gs.withLobby(client, func(l *game.Lobby) error {
			return l.SetReady(client.PlayerID, boolFieldDefault(data, "is_ready", false))
		})
	case "player_ready":
		// The legacy alias is a bare "I'm ready" signal with no flag.
		gs.withLobby(client, func(l *game.Lobby) error {
			return l.SetReady(client.PlayerID, boolFieldDefault(data, "is_ready", true))
		})
	case "start_game":
		gs.withLobby(client, func(l *game.Lobby) error {
			return l.StartGame(client.PlayerID)
		})
	case "vote_theme":
		gs.withLobby(client, func(l *game.Lobby) error {
			return l.CastThemeVote(client.PlayerID, stringField(data, "theme"))
		})
	case "submit_drawing":
		gs.withLobby(client, func(l *game.Lobby) error {
			drawing := stringField(data, "drawing_data")
			if drawing == "" {
				drawing = stringField(data, "drawing")
			}
			return l.SubmitDrawing(client.PlayerID, drawing)
		})
	case "vote_drawing", "vote_for_drawing":
		gs.handleVoteDrawing(client, data)

	case "kick_player":
		gs.withLobby(client, func(l *game.Lobby) error {
			return l.Kick(client.PlayerID, targetField(data))
		})
	case "ban_player":
		gs.withLobby(client, func(l *game.Lobby) error {
			return l.Ban(client.PlayerID, targetField(data))
		})
	case "transfer_host":
		gs.withLobby(client, func(l *game.Lobby) error {
			target := targetField(data)
			if target == "" {
				target = stringField(data, "new_host_id")
			}
			return l.TransferHost(client.PlayerID, target)
		})
	case "update_lobby_settings":
		gs.withLobby(client, func(l *game.Lobby) error {
			patch := mapField(data, "settings")
			if patch == nil {
				patch = data
			}
			return l.UpdateSettings(client.PlayerID, patch)
		})

	default:
		client.Send(errorFrame("Unknown action: " + action))
	}
}

// withLobby resolves the client's lobby binding, runs the operation and
// reports any refusal back as an error frame.
func (gs *GameServer) withLobby(client *Client, op func(*game.Lobby) error) {
	lobbyID, ok := gs.Conns.LobbyOf(client.PlayerID)
	if !ok {
		client.Send(errorFrame("You are not in a lobby"))
		return
	}
	l, exists := gs.Lobbies.Get(lobbyID)
	if !exists {
		gs.Conns.SetLobby(client.PlayerID, "")
		client.Send(errorFrame("Lobby no longer exists"))
		return
	}
	if err := op(l); err != nil {
		client.Send(errorFrame(err.Error()))
	}
}

func (gs *GameServer) handleCreateLobby(client *Client, data map[string]interface{}) {
	if _, already := gs.Conns.LobbyOf(client.PlayerID); already {
		client.Send(errorFrame("Leave your current lobby before creating a new one"))
		return
	}

	settings := models.DefaultSettings()
	if patch := mapField(data, "settings"); patch != nil {
		if _, err := settings.ApplyPatch(patch, 0); err != nil {
			client.Send(errorFrame(err.Error()))
			return
		}
	}

	name := displayName(client, data)
	l := gs.NewLobby(settings)
	if _, err := l.Join(client.PlayerID, name); err != nil {
		gs.Lobbies.Delete(l.ID)
		client.Send(errorFrame(err.Error()))
		return
	}
	gs.Conns.SetName(client.PlayerID, name)
	gs.Conns.SetLobby(client.PlayerID, l.ID)
	gs.Logger.Infof("Lobby %s created by %s", l.ID, client.PlayerID)

	client.Send(game.Frame{"type": "lobby_joined", "data": l.Snapshot()})
	gs.BroadcastLobbyList()
}

func (gs *GameServer) handleJoinLobby(client *Client, data map[string]interface{}, password string) {
	if _, already := gs.Conns.LobbyOf(client.PlayerID); already {
		client.Send(errorFrame("Leave your current lobby before joining another"))
		return
	}

	lobbyID := stringField(data, "lobby_id")
	l, exists := gs.Lobbies.Get(lobbyID)
	if !exists {
		client.Send(errorFrame("Lobby not found"))
		return
	}
	if l.RequiresPassword() && password == "" {
		client.Send(errorFrame("This lobby requires a password"))
		return
	}
	if !l.CheckPassword(password) {
		client.Send(errorFrame("Incorrect password"))
		return
	}

	name := displayName(client, data)
	asSpectator, err := l.Join(client.PlayerID, name)
	if err != nil {
		client.Send(errorFrame(err.Error()))
		return
	}
	gs.Conns.SetName(client.PlayerID, name)
	gs.Conns.SetLobby(client.PlayerID, l.ID)

	snap := l.Snapshot()
	snap["as_spectator"] = asSpectator
	client.Send(game.Frame{"type": "lobby_joined", "data": snap})
}

func (gs *GameServer) handleLeaveLobby(client *Client) {
	lobbyID, ok := gs.Conns.LobbyOf(client.PlayerID)
	if !ok {
		client.Send(errorFrame("You are not in a lobby"))
		return
	}
	gs.Conns.SetLobby(client.PlayerID, "")
	if l, exists := gs.Lobbies.Get(lobbyID); exists {
		l.RemovePlayer(client.PlayerID)
	}
}

// handleVoteDrawing accepts either a drawing_id or the author's player_id.
func (gs *GameServer) handleVoteDrawing(client *Client, data map[string]interface{}) {
	gs.withLobby(client, func(l *game.Lobby) error {
		drawingID := stringField(data, "drawing_id")
		if drawingID == "" {
			if authorID := stringField(data, "player_id"); authorID != "" {
				if id, found := l.DrawingByAuthor(authorID); found {
					drawingID = id
				}
			}
		}
		return l.CastDrawingVote(client.PlayerID, drawingID)
	})
}

func targetField(data map[string]interface{}) string {
	if id := stringField(data, "target_player_id"); id != "" {
		return id
	}
	return stringField(data, "player_id")
}

func displayName(client *Client, data map[string]interface{}) string {
	if name := stringField(data, "display_name"); name != "" {
		return name
	}
	if name := stringField(data, "player_name"); name != "" {
		return name
	}
	if client.Name != "" {
		return client.Name
	}
	return "Player"
}
