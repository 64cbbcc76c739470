package messaging

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Request when no reply arrives within the deadline.
var ErrTimeout = errors.New("messaging: request timed out")

// Message is a single delivery on a subscribed subject. Respond routes a
// payload back to the original requester.
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
}

// Handler processes one delivered message. The dispatcher invokes handlers
// serially within a subscription; handlers on different subscriptions may run
// in parallel.
type Handler func(msg Message)

// Subscription is the cancellation handle for an active subscription.
type Subscription interface {
	Unsubscribe() error
}

// Transport is a pluggable pub/sub substrate with queue-group and
// request/reply semantics. Implementations may adapt NATS, libp2p, or an
// in-process fabric.
type Transport interface {
	// QueueSubscribe delivers each message on subject to exactly one member
	// of the named queue group.
	QueueSubscribe(subject, queue string, handler Handler) (Subscription, error)

	// Request publishes data on subject and waits up to timeout for a single
	// reply.
	Request(subject string, data []byte, timeout time.Duration) ([]byte, error)

	Close()
}
