package messaging

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"lattice/internal/logging"
)

const clientName = "Lattice Invocation Bus"

// NATSTransport adapts a NATS connection to the Transport interface.
type NATSTransport struct {
	nc     *nats.Conn
	logger logging.Logger
}

// ConnectNATS opens a connection to the given host. A non-empty credsFile
// selects authenticated mode; otherwise the connection is anonymous.
func ConnectNATS(host, credsFile string, logger logging.Logger) (*NATSTransport, error) {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(10),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("NATS error", "error", err)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	}
	if credsFile != "" {
		opts = append(opts, nats.UserCredentials(credsFile))
	}

	nc, err := nats.Connect(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSTransport{nc: nc, logger: logger}, nil
}

func (t *NATSTransport) QueueSubscribe(subject, queue string, handler Handler) (Subscription, error) {
	sub, err := t.nc.QueueSubscribe(subject, queue, func(m *nats.Msg) {
		handler(natsMessage{msg: m})
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (t *NATSTransport) Request(subject string, data []byte, timeout time.Duration) ([]byte, error) {
	msg, err := t.nc.Request(subject, data, timeout)
	if err != nil {
		return nil, err
	}
	return msg.Data, nil
}

func (t *NATSTransport) Close() { t.nc.Close() }

func (t *NATSTransport) IsConnected() bool { return t.nc.IsConnected() }

type natsMessage struct{ msg *nats.Msg }

func (m natsMessage) Subject() string           { return m.msg.Subject }
func (m natsMessage) Data() []byte              { return m.msg.Data }
func (m natsMessage) Respond(data []byte) error { return m.msg.Respond(data) }
