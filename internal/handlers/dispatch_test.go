// internal/handlers/dispatch_test.go
package handlers

import (
	"io"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawdash/drawdash/internal/config"
	"github.com/drawdash/drawdash/internal/game"
	"github.com/drawdash/drawdash/internal/ident"
)

func newTestServer(t *testing.T) *GameServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewGameServer(config.Config{}, clock.NewMock(), logger)
}

// connect registers a headless client, the dispatch-level equivalent of a
// WebSocket connection.
func connect(t *testing.T, gs *GameServer) *Client {
	t.Helper()
	c := &Client{
		PlayerID: ident.NewPlayerID(),
		OutChan:  make(chan game.Frame, 256),
	}
	gs.Conns.Add(c)
	return c
}

// drain empties the client's outbound queue.
func drain(c *Client) []game.Frame {
	var out []game.Frame
	for {
		select {
		case f := <-c.OutChan:
			out = append(out, f)
		default:
			return out
		}
	}
}

// drainTyped empties the queue and keeps frames of one type, waiting briefly
// for frames that arrive asynchronously (the lobby list broadcast).
func drainTyped(c *Client, name string) []game.Frame {
	deadline := time.After(time.Second)
	var out []game.Frame
	for {
		select {
		case f := <-c.OutChan:
			if f["type"] == name {
				out = append(out, f)
			}
		case <-deadline:
			return out
		default:
			if len(out) > 0 {
				return out
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func action(name string, data map[string]interface{}) InboundFrame {
	return InboundFrame{Action: name, Data: data}
}

func TestDispatchUnknownAction(t *testing.T) {
	gs := newTestServer(t)
	c := connect(t, gs)

	gs.Dispatch(c, action("do_a_barrel_roll", nil))

	frames := drain(c)
	require.Len(t, frames, 1)
	assert.Equal(t, "error", frames[0]["type"])
}

func TestInboundFrameDiscriminatorAliases(t *testing.T) {
	f := InboundFrame{Type: "join_lobby"}
	assert.Equal(t, "join_lobby", f.Name())

	f = InboundFrame{Type: "ignored", Action: "create_lobby"}
	assert.Equal(t, "create_lobby", f.Name())
}

func TestCreateLobbyFlow(t *testing.T) {
	gs := newTestServer(t)
	c := connect(t, gs)

	gs.Dispatch(c, action("create_lobby", map[string]interface{}{
		"display_name": "Ada",
	}))

	joined := drainTyped(c, "lobby_joined")
	require.Len(t, joined, 1)
	snap := joined[0]["data"].(game.Frame)
	lobbyID := snap["id"].(string)
	assert.Equal(t, c.PlayerID, snap["host_id"])

	bound, ok := gs.Conns.LobbyOf(c.PlayerID)
	require.True(t, ok)
	assert.Equal(t, lobbyID, bound)

	_, exists := gs.Lobbies.Get(lobbyID)
	assert.True(t, exists)
}

func TestCreateLobbyWhileInLobbyRefused(t *testing.T) {
	gs := newTestServer(t)
	c := connect(t, gs)
	gs.Dispatch(c, action("create_lobby", nil))
	drain(c)

	gs.Dispatch(c, action("create_lobby", nil))
	frames := drainTyped(c, "error")
	require.NotEmpty(t, frames)
}

func TestJoinLeaveFlow(t *testing.T) {
	gs := newTestServer(t)
	host := connect(t, gs)
	guest := connect(t, gs)

	gs.Dispatch(host, action("create_lobby", map[string]interface{}{"display_name": "Ada"}))
	snap := drainTyped(host, "lobby_joined")[0]["data"].(game.Frame)
	lobbyID := snap["id"].(string)

	gs.Dispatch(guest, action("join_lobby", map[string]interface{}{
		"lobby_id":     lobbyID,
		"display_name": "Grace",
	}))
	joined := drainTyped(guest, "lobby_joined")
	require.Len(t, joined, 1)
	assert.Equal(t, false, joined[0]["data"].(game.Frame)["as_spectator"])

	// Host sees the membership change.
	updates := drainTyped(host, "lobby_update")
	require.NotEmpty(t, updates)

	gs.Dispatch(guest, action("leave_lobby", nil))
	_, stillBound := gs.Conns.LobbyOf(guest.PlayerID)
	assert.False(t, stillBound)

	l, exists := gs.Lobbies.Get(lobbyID)
	require.True(t, exists)
	assert.Equal(t, 1, l.Summary().PlayerCount)
}

func TestJoinUnknownLobby(t *testing.T) {
	gs := newTestServer(t)
	c := connect(t, gs)

	gs.Dispatch(c, action("join_lobby", map[string]interface{}{"lobby_id": "nope"}))
	frames := drainTyped(c, "error")
	require.Len(t, frames, 1)
	data := frames[0]["data"].(map[string]interface{})
	assert.Equal(t, "Lobby not found", data["message"])
}

func TestPasswordProtectedJoin(t *testing.T) {
	gs := newTestServer(t)
	host := connect(t, gs)
	guest := connect(t, gs)

	gs.Dispatch(host, action("create_lobby", map[string]interface{}{
		"display_name": "Ada",
		"settings": map[string]interface{}{
			"private_lobby": true,
			"password":      "sekrit",
		},
	}))
	snap := drainTyped(host, "lobby_joined")[0]["data"].(game.Frame)
	lobbyID := snap["id"].(string)

	gs.Dispatch(guest, action("join_lobby", map[string]interface{}{"lobby_id": lobbyID}))
	errs := drainTyped(guest, "error")
	require.Len(t, errs, 1)
	assert.Equal(t, "This lobby requires a password",
		errs[0]["data"].(map[string]interface{})["message"])

	gs.Dispatch(guest, action("join_lobby_with_password", map[string]interface{}{
		"lobby_id": lobbyID,
		"password": "wrong",
	}))
	errs = drainTyped(guest, "error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Incorrect password",
		errs[0]["data"].(map[string]interface{})["message"])

	gs.Dispatch(guest, action("join_lobby_with_password", map[string]interface{}{
		"lobby_id": lobbyID,
		"password": "sekrit",
	}))
	require.Len(t, drainTyped(guest, "lobby_joined"), 1)
}

func TestReadyAliasAndStartGame(t *testing.T) {
	gs := newTestServer(t)
	host := connect(t, gs)
	guest := connect(t, gs)

	gs.Dispatch(host, action("create_lobby", nil))
	lobbyID := drainTyped(host, "lobby_joined")[0]["data"].(game.Frame)["id"].(string)
	gs.Dispatch(guest, action("join_lobby", map[string]interface{}{"lobby_id": lobbyID}))
	drain(guest)

	// A bare set_ready carries no flag and therefore means not ready; the
	// player_ready alias without a flag means ready.
	gs.Dispatch(host, action("set_ready", nil))
	gs.Dispatch(guest, action("player_ready", nil))
	drain(host)
	drain(guest)

	l, ok := gs.Lobbies.Get(lobbyID)
	require.True(t, ok)
	players := l.Snapshot()["players"].(map[string]interface{})
	assert.Equal(t, false, players[host.PlayerID].(map[string]interface{})["is_ready"])
	assert.Equal(t, true, players[guest.PlayerID].(map[string]interface{})["is_ready"])

	gs.Dispatch(host, action("set_ready", map[string]interface{}{"is_ready": true}))
	drain(host)

	gs.Dispatch(guest, action("start_game", nil))
	errs := drainTyped(guest, "error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Only the host can start the game",
		errs[0]["data"].(map[string]interface{})["message"])

	gs.Dispatch(host, action("start_game", nil))
	assert.Equal(t, game.StatusThemeVoting, l.Status)
}

func TestActionsOutsideLobbyRefused(t *testing.T) {
	gs := newTestServer(t)
	c := connect(t, gs)

	for _, name := range []string{"set_ready", "start_game", "vote_theme", "submit_drawing", "leave_lobby"} {
		gs.Dispatch(c, action(name, nil))
		errs := drainTyped(c, "error")
		require.Len(t, errs, 1, "action %s", name)
		assert.Equal(t, "You are not in a lobby",
			errs[0]["data"].(map[string]interface{})["message"])
	}
}

func TestGetLobbyList(t *testing.T) {
	gs := newTestServer(t)
	host := connect(t, gs)
	browser := connect(t, gs)

	gs.Dispatch(host, action("create_lobby", nil))
	drain(host)

	gs.Dispatch(browser, action("get_lobby_list", nil))
	lists := drainTyped(browser, "lobby_list")
	require.NotEmpty(t, lists)
	// data is the summary array itself, not an envelope around it.
	lobbies := lists[len(lists)-1]["data"].([]game.LobbySummary)
	require.Len(t, lobbies, 1)
	assert.Equal(t, 1, lobbies[0].PlayerCount)
}

func TestLastLeaverRemovesLobby(t *testing.T) {
	gs := newTestServer(t)
	c := connect(t, gs)

	gs.Dispatch(c, action("create_lobby", nil))
	lobbyID := drainTyped(c, "lobby_joined")[0]["data"].(game.Frame)["id"].(string)

	gs.Dispatch(c, action("leave_lobby", nil))
	_, exists := gs.Lobbies.Get(lobbyID)
	assert.False(t, exists)
}

func TestDropClientCleansUpLobbyState(t *testing.T) {
	gs := newTestServer(t)
	host := connect(t, gs)
	guest := connect(t, gs)

	gs.Dispatch(host, action("create_lobby", nil))
	lobbyID := drainTyped(host, "lobby_joined")[0]["data"].(game.Frame)["id"].(string)
	gs.Dispatch(guest, action("join_lobby", map[string]interface{}{"lobby_id": lobbyID}))
	drain(guest)

	gs.DropClient(guest.PlayerID)

	_, registered := gs.Conns.Get(guest.PlayerID)
	assert.False(t, registered)
	l, exists := gs.Lobbies.Get(lobbyID)
	require.True(t, exists)
	assert.Equal(t, 1, l.Summary().PlayerCount)
}

func TestVoteDrawingAcceptsAuthorID(t *testing.T) {
	gs := newTestServer(t)
	mock := gs.Clock.(*clock.Mock)
	host := connect(t, gs)
	guest := connect(t, gs)

	gs.Dispatch(host, action("create_lobby", map[string]interface{}{
		"settings": map[string]interface{}{"theme_voting_time": float64(10)},
	}))
	lobbyID := drainTyped(host, "lobby_joined")[0]["data"].(game.Frame)["id"].(string)
	gs.Dispatch(guest, action("join_lobby", map[string]interface{}{"lobby_id": lobbyID}))
	gs.Dispatch(host, action("set_ready", map[string]interface{}{"is_ready": true}))
	gs.Dispatch(guest, action("set_ready", map[string]interface{}{"is_ready": true}))
	gs.Dispatch(host, action("start_game", nil))

	l, ok := gs.Lobbies.Get(lobbyID)
	require.True(t, ok)

	gs.Dispatch(host, action("vote_theme", map[string]interface{}{"theme": game.ColorThemes[0]}))

	// A submission during theme voting is refused.
	gs.Dispatch(host, action("submit_drawing", map[string]interface{}{"drawing_data": "early"}))
	require.NotEmpty(t, drainTyped(host, "error"))

	for i := 0; i < 11; i++ {
		mock.Add(time.Second)
	}
	require.Eventually(t, func() bool {
		l.Mu.Lock()
		defer l.Mu.Unlock()
		return l.Status == game.StatusDrawing
	}, 2*time.Second, 10*time.Millisecond)

	// Host submits first, so the host's drawing opens the voting carousel.
	gs.Dispatch(host, action("submit_drawing", map[string]interface{}{"drawing_data": "h"}))
	gs.Dispatch(guest, action("submit_drawing", map[string]interface{}{"drawing_data": "g"}))
	require.Equal(t, game.StatusVotingForDrawings, l.Status)

	gs.Dispatch(guest, action("vote_for_drawing", map[string]interface{}{
		"player_id": host.PlayerID,
	}))
	require.Empty(t, drainTyped(guest, "error"))

	drawingID, found := l.DrawingByAuthor(host.PlayerID)
	require.True(t, found)
	snap := l.Snapshot()
	votes := snap["player_drawing_votes"].(map[string]string)
	assert.Equal(t, drawingID, votes[guest.PlayerID])
}
