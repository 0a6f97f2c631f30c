package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/nvaziri/roomhub/internal/domain"
)

// SubscribeSession subscribes to one session's delivery subject. The caller
// owns the returned subscription and must unsubscribe when the connection
// goes away.
func (c *NATSClient) SubscribeSession(sessionID string, handleFunc func(domain.Event)) (*nats.Subscription, error) {
	sub, err := c.Conn.Subscribe(SessionSubject(sessionID), func(msg *nats.Msg) {
		var ev domain.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return // Skip invalid payloads
		}
		handleFunc(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to session %s: %w", sessionID, err)
	}
	return sub, nil
}
