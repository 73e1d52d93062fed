// Package httptransport is the ops HTTP surface: health, metrics, job
// triggers and read-only caseload and licence queries. Handlers delegate to
// domain services and hold no business rules.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"licences/internal/platform/health"
	"licences/internal/platform/metrics"
	"licences/internal/platform/middleware"
)

const defaultRequestTimeout = 30 * time.Second

// Deps are the collaborators mounted by NewRouter. Jobs, Caseload and
// Licences are optional; their routes are skipped when nil.
type Deps struct {
	Logger     *slog.Logger
	Health     *health.Handler
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	AdminToken string
	Timeout    time.Duration

	Jobs     JobRunner
	Caseload CaseloadService
	Licences LicenceService
}

// NewRouter wires the ops endpoints with the shared middleware stack.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	if d.Health != nil {
		d.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		if d.Caseload != nil {
			newCaseloadHandler(d.Caseload, logger).Register(r)
		}
		if d.Licences != nil {
			newLicenceHandler(d.Licences, logger).Register(r, middleware.RequireAdminToken(d.AdminToken, logger))
		}
	})

	// Job runs can outlast the request timeout; they run detached from the client.
	if d.Jobs != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(d.AdminToken, logger))
			newJobHandler(d.Jobs, logger).Register(r)
		})
	}
	return r
}
