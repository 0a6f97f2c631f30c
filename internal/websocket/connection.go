package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	natsio "github.com/nats-io/nats.go"

	"github.com/nvaziri/roomhub/internal/domain"
	"github.com/nvaziri/roomhub/internal/port"
	"github.com/nvaziri/roomhub/internal/router"
	"github.com/nvaziri/roomhub/pkg/logger"
)

// Presence mirrors which sessions are connected. Keyed by session id, not
// display name: names are not unique, so two sessions named "alice" must not
// erase each other's entries. Satisfied by the Redis client.
type Presence interface {
	AddActiveUser(ctx context.Context, sessionID, displayName string) error
	RemoveActiveUser(ctx context.Context, sessionID string) error
}

// Connection represents a single WebSocket connection. The ID doubles as the
// session's connection handle: the transport assigns it here and the core
// treats it as opaque.
type Connection struct {
	ID       string
	Ws       *websocket.Conn
	Send     chan domain.Event
	Hub      *Hub
	Router   *router.Router
	Presence Presence
	Sub      *natsio.Subscription
	Logger   logger.Logger
	Ctx      context.Context

	// sendMu guards closed and the close of Send. Deliver runs on the NATS
	// callback goroutine and can race the hub closing the channel; a send
	// on a closed channel panics even inside a select with a default.
	sendMu sync.Mutex
	closed bool

	displayName string
}

// Deliver queues an outbound event for the client. Called from the NATS
// subscription callback; events for a closed connection are dropped, and
// slow consumers lose events rather than block the bus.
func (c *Connection) Deliver(ev domain.Event) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.Send <- ev:
	default:
		c.Logger.Warnf("dropping event %s for slow session %s", ev.Type, c.ID)
	}
}

// CloseSend marks the connection closed and closes the send channel exactly
// once. Safe to call from both the hub and the connection's own teardown.
func (c *Connection) CloseSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ReadPump decodes inbound events and feeds them to the router until the
// connection dies, then unwinds the session.
func (c *Connection) ReadPump() {
	defer c.teardown()

	for {
		var ev domain.Event
		if err := c.Ws.ReadJSON(&ev); err != nil {
			c.Logger.Debugf("read on session %s ended: %v", c.ID, err)
			return
		}
		if ev.Type == domain.EventDisconnect {
			return
		}
		deliveries := c.Router.Handle(c.ID, ev)
		c.observeLogin(deliveries)
	}
}

// WritePump drains the send channel onto the socket.
func (c *Connection) WritePump() {
	defer c.Ws.Close()

	for ev := range c.Send {
		if err := c.Ws.WriteJSON(ev); err != nil {
			c.Logger.Debugf("write on session %s ended: %v", c.ID, err)
			return
		}
	}
}

// observeLogin watches for a loginSuccess addressed to this connection so
// the transport can mirror presence. The core stays unaware of Redis.
func (c *Connection) observeLogin(deliveries []port.Delivery) {
	if c.displayName != "" {
		return
	}
	for _, d := range deliveries {
		if d.Event.Type != domain.EventLoginSuccess {
			continue
		}
		c.displayName = d.Event.DisplayName
		if err := c.Presence.AddActiveUser(c.Ctx, c.ID, c.displayName); err != nil {
			c.Logger.Errorf("presence add for %s failed: %v", c.displayName, err)
		}
		return
	}
}

// releasePresence drops this session's presence entry, if it ever made one.
func (c *Connection) releasePresence() {
	if c.displayName == "" {
		return
	}
	if err := c.Presence.RemoveActiveUser(c.Ctx, c.ID); err != nil {
		c.Logger.Errorf("presence remove for %s failed: %v", c.displayName, err)
	}
}

// teardown destroys the session, clears presence, and detaches from the
// delivery bus and the hub. Unsubscribing before the channel is closed
// narrows the race with in-flight deliveries; Deliver's closed guard covers
// the callback that is already running.
func (c *Connection) teardown() {
	c.Router.Handle(c.ID, domain.Event{Type: domain.EventDisconnect})
	c.releasePresence()
	if c.Sub != nil {
		_ = c.Sub.Unsubscribe()
	}
	c.Hub.Unregister <- c
	c.Ws.Close()
}
