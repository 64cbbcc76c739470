package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bus carries the instrumentation for one DistributedBus instance on a
// private registry, so multiple buses in one process never collide.
type Bus struct {
	reg *prometheus.Registry

	Invocations         prometheus.Counter
	InvocationsFailed   prometheus.Counter
	AntiforgeryFailures prometheus.Counter
	ReplaysDropped      prometheus.Counter
	ActiveSubscriptions prometheus.Gauge
	InvokeLatency       prometheus.Summary
}

func NewBus() *Bus {
	reg := prometheus.NewRegistry()
	b := &Bus{
		reg:                 reg,
		Invocations:         prometheus.NewCounter(prometheus.CounterOpts{Name: "lattice_invocations_total", Help: "Invocations handled by local subscriptions"}),
		InvocationsFailed:   prometheus.NewCounter(prometheus.CounterOpts{Name: "lattice_invocations_failed_total", Help: "Outbound invokes that returned an error"}),
		AntiforgeryFailures: prometheus.NewCounter(prometheus.CounterOpts{Name: "lattice_antiforgery_failures_total", Help: "Invocations rejected by the antiforgery gate"}),
		ReplaysDropped:      prometheus.NewCounter(prometheus.CounterOpts{Name: "lattice_replays_dropped_total", Help: "Invocations rejected as replays"}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{Name: "lattice_active_subscriptions", Help: "Subjects currently subscribed on this bus"}),
		InvokeLatency:       prometheus.NewSummary(prometheus.SummaryOpts{Name: "lattice_invoke_latency_ms", Help: "Latency of outbound invokes in ms"}),
	}
	reg.MustRegister(b.Invocations, b.InvocationsFailed, b.AntiforgeryFailures, b.ReplaysDropped, b.ActiveSubscriptions, b.InvokeLatency)
	return b
}

func (b *Bus) Handler() http.Handler { return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{}) }
