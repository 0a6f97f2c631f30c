package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

type NATSClient struct {
	Conn *nats.Conn
}

func NewNATSClient(url string) (*NATSClient, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSClient{Conn: nc}, nil
}

func (c *NATSClient) Close() {
	c.Conn.Close()
}

// SessionSubject is the per-session delivery subject. Every outbound event
// addressed to a session is published here, and only that session's
// connection subscribes to it.
func SessionSubject(sessionID string) string {
	return fmt.Sprintf("chat.session.%s", sessionID)
}
