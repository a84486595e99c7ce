package websocket

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler returns the HTTP handler that upgrades feed connections.
// Clients may scope themselves to one session with ?session_id= and
// narrow further with subscribe messages.
func Handler(hub *Hub) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Origin enforcement happens at the CORS layer; the feed is
		// served to local operator UIs
		CheckOrigin: func(*http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Error("Feed upgrade failed", "error", err.Error())
			return
		}

		client := NewClient(uuid.New().String(), conn, hub, r.URL.Query().Get("session_id"))
		hub.RegisterClient(client)

		go client.WritePump(r.Context())
		client.ReadPump(r.Context())
	}
}
