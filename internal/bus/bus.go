package bus

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"lattice/internal/codec"
	"lattice/internal/config"
	"lattice/internal/logging"
	"lattice/internal/messaging"
	"lattice/internal/metrics"
	"lattice/internal/types"
)

const (
	replayCacheSize = 4096
	replayCacheTTL  = 30 * time.Second
)

// DistributedBus connects a host to the lattice: a shared pub/sub substrate
// over which federated peers exchange request/response invocations. One
// transport connection is shared by all methods; the subscription table is
// mutated in Subscribe/Unsubscribe only, never on the message hot path.
type DistributedBus struct {
	transport  messaging.Transport
	reqTimeout time.Duration
	logger     logging.Logger
	metrics    *metrics.Bus

	mu   sync.RWMutex
	subs map[string]messaging.Subscription

	// seen guards workers against replayed invocations. IDs are fresh UUIDs,
	// so only genuine replays collide.
	seen *expirable.LRU[string, struct{}]
}

// New resolves the lattice environment and connects to the transport. A
// connection failure is fatal to construction.
func New(logger logging.Logger) (*DistributedBus, error) {
	cfg := config.LoadLattice()
	logger.Info("Initializing message bus (lattice)",
		"host", cfg.Host,
		"rpc_timeout", cfg.RPCTimeout,
		"anonymous", cfg.Anonymous())

	transport, err := messaging.ConnectNATS(cfg.Host, cfg.CredsFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to lattice host: %w", err)
	}
	return NewWithTransport(transport, cfg.RPCTimeout, logger), nil
}

// NewWithTransport builds a bus over an already-connected transport.
func NewWithTransport(transport messaging.Transport, reqTimeout time.Duration, logger logging.Logger) *DistributedBus {
	return &DistributedBus{
		transport:  transport,
		reqTimeout: reqTimeout,
		logger:     logger,
		metrics:    metrics.NewBus(),
		subs:       make(map[string]messaging.Subscription),
		seen:       expirable.NewLRU[string, struct{}](replayCacheSize, nil, replayCacheTTL),
	}
}

// Subscribe attaches a worker's channel pair to subject. The queue group name
// equals the subject, so peers subscribed to the same subject share load.
// Re-subscribing a subject replaces the previous subscription; the replaced
// transport handle is cancelled rather than leaked.
func (b *DistributedBus) Subscribe(subject string, invocations chan<- types.Invocation, responses <-chan types.InvocationResponse) error {
	if subject == "" {
		return fmt.Errorf("subject cannot be empty")
	}

	sub, err := b.transport.QueueSubscribe(subject, subject, b.invocationHandler(subject, invocations, responses))
	if err != nil {
		return err
	}

	b.mu.Lock()
	prev := b.subs[subject]
	b.subs[subject] = sub
	b.mu.Unlock()

	if prev != nil {
		if err := prev.Unsubscribe(); err != nil {
			b.logger.Warn("Failed to cancel replaced subscription", "subject", subject, "error", err)
		}
	} else {
		b.metrics.ActiveSubscriptions.Inc()
	}

	b.logger.Info("Subscribed", "subject", subject)
	return nil
}

// Invoke publishes inv on subject and waits for the single reply, bounded by
// the configured request timeout. No retries; errors surface unchanged.
func (b *DistributedBus) Invoke(subject string, inv types.Invocation) (types.InvocationResponse, error) {
	data, err := codec.Serialize(inv)
	if err != nil {
		return types.InvocationResponse{}, err
	}

	start := time.Now()
	reply, err := b.transport.Request(subject, data, b.reqTimeout)
	if err != nil {
		b.metrics.InvocationsFailed.Inc()
		return types.InvocationResponse{}, err
	}
	b.metrics.InvokeLatency.Observe(float64(time.Since(start).Milliseconds()))

	return codec.DecodeResponse(reply)
}

// Unsubscribe detaches subject and cancels the transport subscription.
// Absence is not an error.
func (b *DistributedBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	sub, ok := b.subs[subject]
	delete(b.subs, subject)
	b.mu.Unlock()

	if !ok {
		return nil
	}
	b.metrics.ActiveSubscriptions.Dec()
	b.logger.Info("Unsubscribed", "subject", subject)
	return sub.Unsubscribe()
}

// Close cancels every subscription and releases the transport connection.
func (b *DistributedBus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]messaging.Subscription)
	b.mu.Unlock()

	for subject, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Error("Failed to unsubscribe", "subject", subject, "error", err)
		}
		b.metrics.ActiveSubscriptions.Dec()
	}
	b.transport.Close()
	b.logger.Info("Message bus closed")
}

// Metrics exposes the bus instrumentation for scraping.
func (b *DistributedBus) Metrics() *metrics.Bus { return b.metrics }
