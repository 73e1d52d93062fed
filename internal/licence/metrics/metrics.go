// Package metrics exposes Prometheus collectors for licence transitions and
// lifecycle jobs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Transitions     *prometheus.CounterVec
	Conflicts       prometheus.Counter
	JobRuns         *prometheus.CounterVec
	JobLicences     *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	JobLastSuccess  *prometheus.GaugeVec
	NotificationsOK *prometheus.CounterVec
	NotifyFailures  *prometheus.CounterVec
}

// New registers the licence collectors with reg, or the default registerer
// when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licences_transitions_total",
			Help: "Licence events recorded, by event type and licence kind",
		}, []string{"event", "kind"}),
		Conflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "licences_optimistic_lock_conflicts_total",
			Help: "Updates rejected because the licence changed since it was read",
		}),
		JobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licences_job_runs_total",
			Help: "Lifecycle job runs by job and outcome",
		}, []string{"job", "outcome"}),
		JobLicences: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licences_job_licences_total",
			Help: "Licences changed by lifecycle jobs",
		}, []string{"job", "result"}),
		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "licences_job_duration_seconds",
			Help:    "Duration of lifecycle job runs",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		JobLastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "licences_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job",
		}, []string{"job"}),
		NotificationsOK: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licences_notifications_sent_total",
			Help: "Emails handed to the notification provider",
		}, []string{"template"}),
		NotifyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "licences_notification_failures_total",
			Help: "Emails the notification provider rejected",
		}, []string{"template"}),
	}
}

func (m *Metrics) IncTransition(event, kind string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(event, kind).Inc()
}

func (m *Metrics) IncConflict() {
	if m == nil {
		return
	}
	m.Conflicts.Inc()
}

// ObserveJobRun records one job run. result maps outcome labels such as
// "activated" or "inactivated" to licence counts.
func (m *Metrics) ObserveJobRun(job string, d time.Duration, err error, result map[string]int) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		m.JobRuns.WithLabelValues(job, "failure").Inc()
		return
	}
	m.JobRuns.WithLabelValues(job, "success").Inc()
	m.JobLastSuccess.WithLabelValues(job).SetToCurrentTime()
	for label, n := range result {
		m.JobLicences.WithLabelValues(job, label).Add(float64(n))
	}
}

func (m *Metrics) IncNotification(template string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.NotifyFailures.WithLabelValues(template).Inc()
		return
	}
	m.NotificationsOK.WithLabelValues(template).Inc()
}
