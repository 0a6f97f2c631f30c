package websocket

import (
	"sync"
)

// Hub tracks live connections keyed by their session handle so they can be
// shut down together. Routing decisions live in the router, not here.
type Hub struct {
	mu         sync.Mutex
	clients    map[string]*Connection
	Register   chan *Connection
	Unregister chan *Connection
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Connection),
		Register:   make(chan *Connection),
		Unregister: make(chan *Connection),
	}
}

// Run starts the Hub's main loop for connection lifecycle events.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.addClient(conn)
		case conn := <-h.Unregister:
			h.removeClient(conn)
		}
	}
}

// Close shuts down every tracked connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		conn.CloseSend()
		conn.Ws.Close()
		delete(h.clients, id)
	}
}

func (h *Hub) addClient(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn.ID] = conn
}

func (h *Hub) removeClient(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.clients[conn.ID]; exists {
		delete(h.clients, conn.ID)
		conn.CloseSend()
	}
}
