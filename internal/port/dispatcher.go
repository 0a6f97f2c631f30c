package port

import "github.com/nvaziri/roomhub/internal/domain"

// Delivery is one outbound event paired with the session handles it must
// reach. Recipients are captured atomically with the registry mutation that
// produced them; actual delivery may happen later and concurrently.
type Delivery struct {
	Event      domain.Event
	Recipients []string
}

// Dispatcher delivers outbound events to recipient sessions. Implemented by
// the NATS-backed dispatcher in production and by a recording fake in tests.
type Dispatcher interface {
	Dispatch(d Delivery) error
}
