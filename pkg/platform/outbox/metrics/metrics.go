package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the outbox relay.
type Metrics struct {
	PendingDepth  prometheus.Gauge
	RelayedTotal  *prometheus.CounterVec
	RelayFailures prometheus.Counter
	RelayDuration prometheus.Histogram
	BatchSize     prometheus.Histogram
	PurgedTotal   prometheus.Counter
}

// New registers the outbox metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		PendingDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "licences_outbox_pending_total",
			Help: "Current number of outbox entries not yet relayed",
		}),
		RelayedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licences_outbox_relayed_total",
			Help: "Outbox entries relayed to Kafka, by event type",
		}, []string{"event_type"}),
		RelayFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "licences_outbox_relay_failures_total",
			Help: "Outbox fetch or publish failures",
		}),
		RelayDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "licences_outbox_relay_duration_seconds",
			Help:    "Time taken to publish one outbox entry",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "licences_outbox_batch_size",
			Help:    "Entries fetched per poll",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
		PurgedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "licences_outbox_purged_total",
			Help: "Relayed entries deleted by retention cleanup",
		}),
	}
}

func (m *Metrics) SetPendingDepth(count int64) {
	m.PendingDepth.Set(float64(count))
}

func (m *Metrics) IncRelayed(eventType string) {
	m.RelayedTotal.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncRelayFailures() {
	m.RelayFailures.Inc()
}

func (m *Metrics) ObserveRelayDuration(seconds float64) {
	m.RelayDuration.Observe(seconds)
}

func (m *Metrics) ObserveBatchSize(size int) {
	m.BatchSize.Observe(float64(size))
}

func (m *Metrics) AddPurged(n int64) {
	m.PurgedTotal.Add(float64(n))
}
