// Package workers holds the lifecycle batch jobs. Each job selects licences
// from current persisted state and applies its transitions in one
// transaction, so a failed run leaves nothing behind and a re-run converges.
package workers

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"cloud.google.com/go/civil"
	mapset "github.com/deckarep/golang-set/v2"

	"licences/internal/licence/metrics"
	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/internal/notify"
	"licences/internal/upstream"
)

// Job is one lifecycle batch process.
type Job interface {
	Name() string
	// RunOnce performs a single pass using the time pinned in ctx.
	RunOnce(ctx context.Context) (Result, error)
}

// Result summarizes one run. Counts maps an outcome label (activated,
// inactivated, emailed, ...) to the number of licences it applied to.
type Result struct {
	Selected int
	Counts   map[string]int
	// Skipped explains a run that deliberately did nothing.
	Skipped string
}

func (r *Result) add(label string, n int) {
	if n == 0 {
		return
	}
	if r.Counts == nil {
		r.Counts = make(map[string]int)
	}
	r.Counts[label] += n
}

// Labels returns the outcome labels in stable order, for logging.
func (r Result) Labels() []string {
	return slices.Sorted(maps.Keys(r.Counts))
}

// Licences is the part of the licence service the jobs drive.
type Licences interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	List(ctx context.Context, f store.Filter) ([]models.Licence, error)
	TimeOutLicences(ctx context.Context, licences []models.Licence, reason string) ([]models.Licence, error)
	ActivateLicences(ctx context.Context, licences []models.Licence) ([]models.Licence, error)
	InactivateLicences(ctx context.Context, licences []models.Licence, reason string) ([]models.Licence, error)
	RemoveExpiredConditions(ctx context.Context, licences []models.Licence) ([]models.Licence, error)
}

// PrisonAPI is satisfied by upstream.PrisonAPI.
type PrisonAPI interface {
	HDCStatuses(ctx context.Context, bookingIDs []int64) ([]upstream.HDCStatus, error)
	IS91Bookings(ctx context.Context, bookingIDs []int64) ([]int64, error)
}

// PrisonerSearch is satisfied by upstream.PrisonerSearch.
type PrisonerSearch interface {
	SearchByNomsIDs(ctx context.Context, nomsIDs []string) ([]upstream.Prisoner, error)
}

// Option configures the shared parts of a job.
type Option func(*base)

func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *base) {
		b.metrics = m
	}
}

type base struct {
	name    string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newBase(name string, opts []Option) base {
	b := base{name: name, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	b.logger = b.logger.With("job", name)
	return b
}

func (b base) Name() string { return b.name }

func caseFor(l models.Licence) notify.Case {
	return notify.Case{
		Name:          l.Offender.Forename + " " + l.Offender.Surname,
		CRN:           l.Offender.CRN,
		NomsID:        l.Offender.NomsID,
		LicenceID:     l.ID,
		ReleaseDate:   l.Dates.LicenceStartDate,
		LicenceStatus: string(l.Status()),
	}
}

func bookingIDs(ls []models.Licence) []int64 {
	return distinct(ls, func(l models.Licence) int64 { return l.Offender.BookingID })
}

func nomsIDs(ls []models.Licence) []string {
	return distinct(ls, func(l models.Licence) string { return l.Offender.NomsID })
}

// distinct returns the non-zero keys of ls in first-seen order.
func distinct[K comparable](ls []models.Licence, key func(models.Licence) K) []K {
	var zero K
	seen := mapset.NewThreadUnsafeSet[K]()
	out := make([]K, 0, len(ls))
	for _, l := range ls {
		k := key(l)
		if k == zero || !seen.Add(k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

// onOrBefore reports d <= today; a missing date never qualifies.
func onOrBefore(d *civil.Date, today civil.Date) bool {
	return d != nil && !d.After(today)
}

func firstDate(ds ...*civil.Date) *civil.Date {
	for _, d := range ds {
		if d != nil {
			return d
		}
	}
	return nil
}

// variationStatuses are the non-terminal variation statuses.
var variationStatuses = []models.Status{
	models.StatusVariationInProgress,
	models.StatusVariationSubmitted,
	models.StatusVariationApproved,
}
