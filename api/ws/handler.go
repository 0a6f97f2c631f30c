package ws

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"

	"github.com/nvaziri/roomhub/internal/domain"
	"github.com/nvaziri/roomhub/internal/nats"
	"github.com/nvaziri/roomhub/internal/redis"
	"github.com/nvaziri/roomhub/internal/router"
	"github.com/nvaziri/roomhub/internal/websocket"
	"github.com/nvaziri/roomhub/pkg/logger"
)

var upgrader = gws.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for testing; restrict in production.
	},
}

// HandleWebSocket upgrades the connection, assigns it an opaque session
// handle, and wires it to the router and the delivery bus. No session exists
// until the client sends a login event; the router drops everything else.
func HandleWebSocket(
	hub *websocket.Hub,
	rt *router.Router,
	natsClient *nats.NATSClient,
	presence *redis.RedisClient,
	rootCtx context.Context,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logg := logger.FromContext(rootCtx).WithModule("websocket")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logg.Errorf("upgrade error: %v", err)
			return
		}

		client := &websocket.Connection{
			ID:       uuid.NewString(),
			Ws:       conn,
			Send:     make(chan domain.Event, 256),
			Hub:      hub,
			Router:   rt,
			Presence: presence,
			Logger:   logg,
			Ctx:      rootCtx,
		}

		sub, err := natsClient.SubscribeSession(client.ID, client.Deliver)
		if err != nil {
			logg.Errorf("delivery subscription for %s failed: %v", client.ID, err)
			conn.Close()
			return
		}
		client.Sub = sub

		hub.Register <- client
		logg.Infof("new connection from %s (session=%s)", conn.RemoteAddr(), client.ID)

		go client.ReadPump()
		go client.WritePump()
	}
}
