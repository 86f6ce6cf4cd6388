package metrics

import (
	"net/http"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reconcile *prometheus.CounterVec
	gatherer  prometheus.Gatherer
}

var _ port.Metrics = (*Metrics)(nil)

// New registers the reconciliation collectors in a fresh registry that also
// carries the Go and process collectors.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	reconcile := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payments",
		Name:      "reconcile_events_total",
		Help:      "Gateway events seen by the reconciliation engine by outcome.",
	}, []string{"source", "kind", "outcome"})

	for _, c := range []prometheus.Collector{
		reconcile,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &Metrics{reconcile: reconcile, gatherer: reg}, nil
}

func (m *Metrics) ObserveReconcile(source domain.SourceType, kind domain.EventKind, outcome domain.Outcome) {
	m.reconcile.WithLabelValues(string(source), string(kind), string(outcome)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
