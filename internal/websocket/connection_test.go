package websocket

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvaziri/roomhub/internal/domain"
	"github.com/nvaziri/roomhub/internal/port"
	"github.com/nvaziri/roomhub/pkg/logger"
)

type fakePresence struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakePresence() *fakePresence {
	return &fakePresence{entries: make(map[string]string)}
}

func (f *fakePresence) AddActiveUser(_ context.Context, sessionID, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[sessionID] = displayName
	return nil
}

func (f *fakePresence) RemoveActiveUser(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, sessionID)
	return nil
}

func newTestConnection(id string, presence Presence) *Connection {
	return &Connection{
		ID:       id,
		Send:     make(chan domain.Event, 4),
		Presence: presence,
		Logger:   logger.NewLogger("error", ""),
		Ctx:      context.Background(),
	}
}

func loginSuccessFor(name string) []port.Delivery {
	return []port.Delivery{{
		Event: domain.Event{Type: domain.EventLoginSuccess, DisplayName: name},
	}}
}

func TestDeliverQueuesEvent(t *testing.T) {
	c := newTestConnection("conn-1", newFakePresence())

	c.Deliver(domain.Event{Type: domain.EventMessage, Body: "hi"})

	require.Len(t, c.Send, 1)
	ev := <-c.Send
	assert.Equal(t, "hi", ev.Body)
}

func TestDeliverDropsWhenBufferFull(t *testing.T) {
	c := newTestConnection("conn-1", newFakePresence())

	for i := 0; i < cap(c.Send)+3; i++ {
		c.Deliver(domain.Event{Type: domain.EventMessage})
	}

	// Excess events are dropped, never blocking the delivery bus.
	assert.Len(t, c.Send, cap(c.Send))
}

func TestDeliverAfterCloseDoesNotPanic(t *testing.T) {
	c := newTestConnection("conn-1", newFakePresence())

	c.CloseSend()

	assert.NotPanics(t, func() {
		c.Deliver(domain.Event{Type: domain.EventMessage})
	})
}

func TestCloseSendIsIdempotent(t *testing.T) {
	c := newTestConnection("conn-1", newFakePresence())

	// Both the hub's removeClient and Close may hit the same connection.
	assert.NotPanics(t, func() {
		c.CloseSend()
		c.CloseSend()
	})
}

func TestConcurrentDeliverAndClose(t *testing.T) {
	// The NATS callback can be mid-Deliver when the hub closes the channel;
	// the closed guard must make that pair safe in either order.
	for i := 0; i < 100; i++ {
		c := newTestConnection("conn-1", newFakePresence())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.Deliver(domain.Event{Type: domain.EventMessage})
			}
		}()
		go func() {
			defer wg.Done()
			c.CloseSend()
		}()
		wg.Wait()
	}
}

func TestHubRemoveClientClosesSendOnce(t *testing.T) {
	h := NewHub()
	c := newTestConnection("conn-1", newFakePresence())
	c.Hub = h

	h.addClient(c)
	h.removeClient(c)
	// A second remove for the same connection must be a no-op.
	assert.NotPanics(t, func() { h.removeClient(c) })

	_, open := <-c.Send
	assert.False(t, open)
}

func TestPresenceTracksSessionsNotNames(t *testing.T) {
	presence := newFakePresence()

	// Two concurrent sessions under the same display name, by design.
	first := newTestConnection("conn-1", presence)
	second := newTestConnection("conn-2", presence)
	first.observeLogin(loginSuccessFor("alice"))
	second.observeLogin(loginSuccessFor("alice"))

	require.Len(t, presence.entries, 2)

	// One alice leaving must not erase the other's presence entry.
	first.releasePresence()

	require.Len(t, presence.entries, 1)
	assert.Equal(t, "alice", presence.entries["conn-2"])
}

func TestReleasePresenceBeforeLogin(t *testing.T) {
	presence := newFakePresence()
	c := newTestConnection("conn-1", presence)

	// A connection that never logged in has nothing to release.
	assert.NotPanics(t, c.releasePresence)
	assert.Empty(t, presence.entries)
}
