package bus

import (
	"fmt"

	"lattice/internal/codec"
	"lattice/internal/messaging"
	"lattice/internal/types"
)

// invocationHandler builds the per-message callback for one subscription. The
// closure captures the worker's channel ends; every message published to the
// subject flows through it: decode, gate, forward, await the single reply,
// respond. Blocking on the receive keeps delivery one-at-a-time within the
// subscription.
func (b *DistributedBus) invocationHandler(subject string, invocations chan<- types.Invocation, responses <-chan types.InvocationResponse) messaging.Handler {
	return func(msg messaging.Message) {
		// A handler panic must never take down the transport dispatcher.
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Invocation handler panicked", "subject", subject, "panic", r)
			}
		}()

		inv, err := codec.DecodeInvocation(msg.Data())
		if err != nil {
			// No invocation identity to answer to; drop the message.
			b.logger.Error("Failed to decode invocation", "subject", subject, "error", err)
			return
		}

		if _, dup := b.seen.Get(inv.ID); dup {
			b.metrics.ReplaysDropped.Inc()
			b.logger.Warn("Rejected replayed invocation",
				"subject", subject, "invocation", inv.ID, "origin", inv.Origin)
			b.respond(msg, types.ErrorResponse(&inv, fmt.Sprintf("duplicate invocation: %s", inv.ID)))
			return
		}
		b.seen.Add(inv.ID, struct{}{})

		if err := inv.ValidateAntiforgery(); err != nil {
			b.metrics.AntiforgeryFailures.Inc()
			b.logger.Error("Invocation antiforgery check failure",
				"subject", subject, "invocation", inv.ID, "origin", inv.Origin, "error", err)
			b.respond(msg, types.ErrorResponse(&inv, fmt.Sprintf("Antiforgery check failure: %s", err)))
			return
		}

		// Hand off to the worker and wait for its single reply. Both sides
		// may block: the send on worker back-pressure, the receive until the
		// worker answers. The deadline lives with the remote caller.
		invocations <- inv
		resp := <-responses

		b.metrics.Invocations.Inc()
		b.respond(msg, resp)
	}
}

func (b *DistributedBus) respond(msg messaging.Message, resp types.InvocationResponse) {
	data, err := codec.Serialize(resp)
	if err != nil {
		b.logger.Error("Failed to serialize invocation response",
			"invocation", resp.InvocationID, "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		b.logger.Error("Failed to publish invocation response",
			"invocation", resp.InvocationID, "error", err)
	}
}
