package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"licences/internal/licence/metrics"
	dErrors "licences/pkg/domain-errors"
	"licences/pkg/requestcontext"
)

// Runner executes jobs: on independent tickers via Start, or on demand via
// Run. Every run gets its own pinned clock, a run timeout, a log line and
// job metrics. Runs of the same job never overlap.
type Runner struct {
	schedules []schedule
	locks     map[string]*sync.Mutex
	mu        sync.Mutex
	timeout   time.Duration
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type schedule struct {
	job      Job
	interval time.Duration
}

type RunnerOption func(*Runner)

// WithRunTimeout bounds each run when greater than zero. Default is 10m.
func WithRunTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func WithRunnerMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		locks:   make(map[string]*sync.Mutex),
		timeout: 10 * time.Minute,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Schedule adds job to the set started by Start. A non-positive interval
// leaves the job available to Run only.
func (r *Runner) Schedule(job Job, every time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules = append(r.schedules, schedule{job: job, interval: every})
	r.locks[job.Name()] = &sync.Mutex{}
}

// Start runs every scheduled job on its own ticker until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	schedules := append([]schedule(nil), r.schedules...)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range schedules {
		if s.interval <= 0 {
			continue
		}
		wg.Go(func() {
			ticker := time.NewTicker(s.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					_, err := r.Run(ctx, s.job)
					if err != nil && dErrors.HasCode(err, dErrors.CodeConflict) {
						r.logger.InfoContext(ctx, "previous run still in progress", "job", s.job.Name())
					}
				case <-ctx.Done():
					return
				}
			}
		})
	}
	wg.Wait()
	return ctx.Err()
}

// Run performs one run of job now. It returns a conflict error when the
// job is already running.
func (r *Runner) Run(ctx context.Context, job Job) (Result, error) {
	lock := r.lockFor(job.Name())
	if !lock.TryLock() {
		return Result{}, dErrors.New(dErrors.CodeConflict, "job "+job.Name()+" is already running")
	}
	defer lock.Unlock()

	began := time.Now()
	ctx = requestcontext.WithTime(ctx, r.now())
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := job.RunOnce(ctx)
	elapsed := time.Since(began)
	r.metrics.ObserveJobRun(job.Name(), elapsed, err, res.Counts)

	attrs := []any{
		"job", job.Name(),
		"today", requestcontext.Today(ctx).String(),
		"selected", res.Selected,
		"duration_ms", elapsed.Milliseconds(),
	}
	for _, label := range res.Labels() {
		attrs = append(attrs, label, res.Counts[label])
	}
	switch {
	case err != nil:
		r.logger.ErrorContext(ctx, "lifecycle job failed", append(attrs, "error", err)...)
	case res.Skipped != "":
		r.logger.InfoContext(ctx, "lifecycle job skipped", append(attrs, "reason", res.Skipped)...)
	default:
		r.logger.InfoContext(ctx, "lifecycle job completed", attrs...)
	}
	return res, err
}

func (r *Runner) lockFor(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}
