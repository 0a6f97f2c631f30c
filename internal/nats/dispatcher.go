package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nvaziri/roomhub/internal/port"
	"github.com/nvaziri/roomhub/pkg/logger"
)

// Dispatcher publishes each outbound event to the per-session subject of
// every recipient. The router has already decided who receives what; this
// layer only moves bytes.
type Dispatcher struct {
	client *NATSClient
	logger logger.Logger
}

func NewDispatcher(client *NATSClient, logg logger.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logg}
}

func (d *Dispatcher) Dispatch(del port.Delivery) error {
	data, err := json.Marshal(del.Event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	for _, sessionID := range del.Recipients {
		if err := d.client.Conn.Publish(SessionSubject(sessionID), data); err != nil {
			// Keep delivering to the rest; one dead recipient must not
			// starve the others.
			d.logger.Errorf("publish to session %s failed: %v", sessionID, err)
		}
	}
	return nil
}
