// Package metrics exposes prometheus instruments for the replay pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notes"

type Metrics struct {
	Routed    *prometheus.CounterVec
	Decrypted *prometheus.CounterVec
	Folded    *prometheus.CounterVec
	Appended  prometheus.Counter
	Ingest    prometheus.Histogram
}

// New registers the instruments with reg. A nil reg leaves them
// unregistered, which tests use to avoid the global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_transactions_total",
			Help:      "Transactions seen by the router, by outcome.",
		}, []string{"outcome"}),
		Decrypted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decrypt_operations_total",
			Help:      "Operation decryptions, by outcome.",
		}, []string{"outcome"}),
		Folded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fold_operations_total",
			Help:      "Operations folded into the materialized state, by outcome.",
		}, []string{"outcome"}),
		Appended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oplog_appended_total",
			Help:      "Transactions newly written to the operation log.",
		}),
		Ingest: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Time to route, decrypt and fold one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Routed, m.Decrypted, m.Folded, m.Appended, m.Ingest)
	}
	return m
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (m *Metrics) Route(routed, rejected int) {
	m.Routed.WithLabelValues("routed").Add(float64(routed))
	m.Routed.WithLabelValues("rejected").Add(float64(rejected))
}

func (m *Metrics) Decrypt(ok bool) {
	m.Decrypted.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) Fold(applied, failed int) {
	m.Folded.WithLabelValues("ok").Add(float64(applied))
	m.Folded.WithLabelValues("error").Add(float64(failed))
}

func (m *Metrics) ObserveIngest(start time.Time) {
	m.Ingest.Observe(time.Since(start).Seconds())
}
