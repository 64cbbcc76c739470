package router

import (
	"testing"
	"time"

	"lattice/internal/types"
)

func TestGetPairMissing(t *testing.T) {
	r := New()
	if _, ok := r.GetPair("nowhere"); ok {
		t.Fatalf("expected no pair for unregistered id")
	}
}

func TestAddRouteAndGetPair(t *testing.T) {
	r := New()
	invocations := make(chan types.Invocation, 1)
	responses := make(chan types.InvocationResponse, 1)

	r.AddRoute("svc.echo", invocations, responses)

	pair, ok := r.GetPair("svc.echo")
	if !ok {
		t.Fatalf("expected pair for svc.echo")
	}

	// The returned pair shares channel ends with the registered ones.
	pair.Invocations <- types.Invocation{ID: "inv-1"}
	select {
	case inv := <-invocations:
		if inv.ID != "inv-1" {
			t.Fatalf("unexpected invocation id: %s", inv.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("invocation did not arrive on the registered channel")
	}

	responses <- types.InvocationResponse{InvocationID: "inv-1"}
	select {
	case resp := <-pair.Responses:
		if resp.InvocationID != "inv-1" {
			t.Fatalf("unexpected response id: %s", resp.InvocationID)
		}
	case <-time.After(time.Second):
		t.Fatalf("response did not arrive through the returned pair")
	}
}

func TestGetPairCopiesShareChannels(t *testing.T) {
	r := New()
	invocations := make(chan types.Invocation, 2)
	responses := make(chan types.InvocationResponse)

	r.AddRoute("svc.work", invocations, responses)

	first, _ := r.GetPair("svc.work")
	second, _ := r.GetPair("svc.work")

	first.Invocations <- types.Invocation{ID: "a"}
	second.Invocations <- types.Invocation{ID: "b"}

	if got := len(invocations); got != 2 {
		t.Fatalf("expected both copies to feed one channel, got %d queued", got)
	}
}

func TestAddRouteReplacesSilently(t *testing.T) {
	r := New()
	oldInv := make(chan types.Invocation, 1)
	newInv := make(chan types.Invocation, 1)
	responses := make(chan types.InvocationResponse)

	r.AddRoute("svc.echo", oldInv, responses)
	r.AddRoute("svc.echo", newInv, responses)

	pair, ok := r.GetPair("svc.echo")
	if !ok {
		t.Fatalf("expected pair after replacement")
	}

	pair.Invocations <- types.Invocation{ID: "x"}
	if len(newInv) != 1 {
		t.Fatalf("replacement route did not receive the invocation")
	}
	if len(oldInv) != 0 {
		t.Fatalf("stale route still receives invocations")
	}
}
