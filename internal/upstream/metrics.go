package upstream

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"licences/pkg/platform/circuit"
)

// Metrics records upstream request outcomes and breaker state.
type Metrics struct {
	Requests     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
	BreakerState *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licences_upstream_requests_total",
			Help: "Upstream requests by upstream and outcome",
		}, []string{"upstream", "outcome"}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "licences_upstream_request_duration_seconds",
			Help:    "Upstream request latency",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "licences_upstream_circuit_state",
			Help: "Circuit state per upstream: 0 closed, 1 open, 2 half open",
		}, []string{"upstream"}),
	}
}

func (m *Metrics) observe(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case CategoryOf(err) != "":
		outcome = string(CategoryOf(err))
	case isOpen(err):
		outcome = "circuit_open"
	default:
		outcome = "error"
	}
	m.Requests.WithLabelValues(name, outcome).Inc()
	m.Latency.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) setBreakerState(name string, s circuit.State) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(s))
}

func isOpen(err error) bool {
	return errors.Is(err, circuit.ErrOpen)
}
