package router

import (
	"lattice/internal/types"
)

// Router maps a subject id to the channel endpoints of a local worker.
//
// The router holds no locks of its own: when route mutation can race with
// lookups, the owner of the router synchronizes access.
type Router struct {
	routes map[string]types.InvokerPair
}

func New() *Router {
	return &Router{routes: make(map[string]types.InvokerPair)}
}

// AddRoute inserts or replaces the endpoints registered for id. Replacement
// is silent; callers own the ordering.
func (r *Router) AddRoute(id string, invocations chan<- types.Invocation, responses <-chan types.InvocationResponse) {
	r.routes[id] = types.InvokerPair{Invocations: invocations, Responses: responses}
}

// GetPair returns a copy of the pair registered for id. The copy shares the
// underlying channel ends with every previously returned copy.
func (r *Router) GetPair(id string) (types.InvokerPair, bool) {
	pair, ok := r.routes[id]
	return pair, ok
}
