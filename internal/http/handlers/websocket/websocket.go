package websocket

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/stories-client/internal/http/middleware"
	"github.com/princekumarofficial/stories-client/internal/types"
	"github.com/princekumarofficial/stories-client/internal/utils/response"
	wsClient "github.com/princekumarofficial/stories-client/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The inspector only listens for the local UI process
		return true
	},
}

// WebSocketHandler streams store events to the UI. The first message is a
// snapshot built by snapshot.
func WebSocketHandler(hub *wsClient.Hub, snapshot func() *types.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		client := wsClient.NewClient(conn, userID, hub)

		// Queue the snapshot before the hub knows the client so it is always
		// the first frame.
		if err := client.SendEvent(snapshot()); err != nil {
			slog.Error("Failed to queue snapshot", slog.String("error", err.Error()))
		}

		if !hub.RegisterClient(client) {
			conn.Close()
			return
		}
		client.Start()

		slog.Info("WebSocket connection established", slog.String("user_id", userID))
	}
}
