// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/drawdash/drawdash/internal/game"
	"github.com/drawdash/drawdash/internal/ident"
	"github.com/drawdash/drawdash/internal/middleware"
)

// writeTimeout bounds a single frame write. A client that cannot take a
// frame within this window is disconnected.
const writeTimeout = 10 * time.Second

// WSHandler accepts a game WebSocket connection, assigns the client its
// player identity and runs the read/write pumps until the connection dies.
func WSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: gs.Config.OriginPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		client := &Client{
			PlayerID: ident.NewPlayerID(),
			OutChan:  make(chan game.Frame, outChanSize),
			Cancel:   cancel,
		}
		gs.Conns.Add(client)
		middleware.LogWebSocketConnect(logger, remoteAddr, client.PlayerID)

		go writePump(ctx, c, client, logger)

		// The client needs its identity before it can act.
		client.Send(game.Frame{
			"type": "connection_ack",
			"data": map[string]interface{}{"player_id": client.PlayerID},
		})

		readPump(ctx, c, gs, client, logger)

		middleware.LogWebSocketDisconnect(logger, remoteAddr, client.PlayerID)
		gs.DropClient(client.PlayerID)
	}
}

// readPump consumes inbound frames in arrival order and dispatches each one.
// Per-client ordering is preserved because dispatch happens inline.
func readPump(ctx context.Context, c *websocket.Conn, gs *GameServer, client *Client, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return
			}
			if strings.Contains(err.Error(), "context canceled") {
				return
			}
			logger.Warnf("Client %s: read error: %v", client.PlayerID, err)
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("Client %s: ignoring non-text message", client.PlayerID)
			continue
		}

		var inbound InboundFrame
		if err := json.Unmarshal(msg, &inbound); err != nil {
			client.Send(errorFrame("Invalid JSON format"))
			continue
		}

		gs.Dispatch(client, inbound)
	}
}

// writePump drains the client's outbound queue to the socket. Any write
// failure or timeout kills the connection; the read pump then unwinds and
// cleans up lobby state.
func writePump(ctx context.Context, c *websocket.Conn, client *Client, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-client.OutChan:
			if !ok {
				return
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				logger.Errorf("Client %s: marshal error: %v", client.PlayerID, err)
				continue
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(wctx, websocket.MessageText, payload)
			wcancel()
			if err != nil {
				logger.Warnf("Client %s: write error: %v", client.PlayerID, err)
				c.Close(SlowConsumerError, "write failed")
				client.Cancel()
				return
			}
		}
	}
}

func errorFrame(message string) game.Frame {
	return game.Frame{
		"type": "error",
		"data": map[string]interface{}{"message": message},
	}
}
