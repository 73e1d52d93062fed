// Package metrics exposes Prometheus collectors for caseload building.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Views         *prometheus.CounterVec
	Omitted       *prometheus.CounterVec
	BuildDuration prometheus.Histogram
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	CacheErrors   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Views: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licences_caseload_views_total",
			Help: "Case views built, by resolved licence status",
		}, []string{"status"}),
		Omitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licences_caseload_omitted_total",
			Help: "Offenders left out of a caseload, by reason",
		}, []string{"reason"}),
		BuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "licences_caseload_build_duration_seconds",
			Help:    "Time to assemble a caseload",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "licences_caseload_prisoner_cache_hits_total",
			Help: "Prisoner records served from the cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "licences_caseload_prisoner_cache_misses_total",
			Help: "Prisoner records fetched from prisoner search",
		}),
		CacheErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "licences_caseload_prisoner_cache_errors_total",
			Help: "Cache reads or writes that failed and fell back to prisoner search",
		}),
	}
}

func (m *Metrics) IncView(status string) {
	if m == nil {
		return
	}
	m.Views.WithLabelValues(status).Inc()
}

func (m *Metrics) IncOmitted(reason string) {
	if m == nil {
		return
	}
	m.Omitted.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
}

func (m *Metrics) AddCache(hits, misses int) {
	if m == nil {
		return
	}
	m.CacheHits.Add(float64(hits))
	m.CacheMisses.Add(float64(misses))
}

func (m *Metrics) IncCacheError() {
	if m == nil {
		return
	}
	m.CacheErrors.Inc()
}
