package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"licences/internal/platform/kafka/producer"
	"licences/pkg/platform/outbox"
	"licences/pkg/platform/outbox/metrics"
)

// Producer publishes a message and waits for the broker acknowledgement.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Worker polls the outbox table and relays domain events to Kafka.
type Worker struct {
	store        outbox.Store
	producer     Producer
	topic        string
	batchSize    int
	pollInterval time.Duration
	retention    time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures the Worker.
type Option func(*Worker)

// WithTopic sets the Kafka topic for publishing.
func WithTopic(topic string) Option {
	return func(w *Worker) {
		w.topic = topic
	}
}

// WithBatchSize sets the maximum number of entries to fetch per poll.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithPollInterval sets the interval between polls.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithRetention makes each poll delete relayed entries older than d.
// Zero keeps relayed entries forever.
func WithRetention(d time.Duration) Option {
	return func(w *Worker) {
		w.retention = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithClock overrides the wall clock used for processed_at stamps.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

// New creates a new outbox worker.
func New(store outbox.Store, prod Producer, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		store:        store,
		producer:     prod,
		topic:        "licences.domain.events",
		batchSize:    100,
		pollInterval: time.Second,
		logger:       slog.Default(),
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins the polling loop in a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case <-ticker.C:
			if _, err := w.RunOnce(w.ctx); err != nil {
				w.logger.Error("outbox poll failed", "error", err)
			}
		}
	}
}

// RunOnce relays one batch and returns how many entries were published.
// A publish failure leaves the entry pending for the next poll.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	entries, err := w.store.FetchUnprocessed(ctx, w.batchSize)
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncRelayFailures()
		}
		return 0, err
	}

	if w.metrics != nil && len(entries) > 0 {
		w.metrics.ObserveBatchSize(len(entries))
	}

	published := 0
	for _, entry := range entries {
		if w.relay(ctx, entry) {
			published++
		}
	}

	if w.retention > 0 {
		w.purge(ctx)
	}
	if err := w.UpdateMetrics(ctx); err != nil {
		w.logger.Warn("failed to count pending outbox entries", "error", err)
	}
	return published, nil
}

func (w *Worker) relay(ctx context.Context, entry *outbox.Entry) bool {
	if err := w.publishEntry(ctx, entry); err != nil {
		w.logger.Error("failed to publish outbox entry",
			"id", entry.ID,
			"event_type", entry.EventType,
			"error", err,
		)
		if w.metrics != nil {
			w.metrics.IncRelayFailures()
		}
		return false
	}

	if err := w.store.MarkProcessed(ctx, entry.ID, w.now()); err != nil {
		// published but not marked: consumers see a duplicate on the next poll
		w.logger.Error("failed to mark entry as processed",
			"id", entry.ID,
			"error", err,
		)
		return false
	}

	if w.metrics != nil {
		w.metrics.IncRelayed(entry.EventType)
	}
	return true
}

func (w *Worker) publishEntry(ctx context.Context, entry *outbox.Entry) error {
	start := time.Now()

	msg := &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.AggregateID),
		Value: entry.Payload,
		Headers: map[string]string{
			"event_id":       entry.ID.String(),
			"aggregate_type": entry.AggregateType,
			"event_type":     entry.EventType,
		},
	}

	if err := w.producer.Produce(ctx, msg); err != nil {
		return err
	}

	if w.metrics != nil {
		w.metrics.ObserveRelayDuration(time.Since(start).Seconds())
	}
	return nil
}

func (w *Worker) purge(ctx context.Context) {
	deleted, err := w.store.DeleteProcessedBefore(ctx, w.now().Add(-w.retention))
	if err != nil {
		w.logger.Warn("failed to purge relayed outbox entries", "error", err)
		return
	}
	if w.metrics != nil && deleted > 0 {
		w.metrics.AddPurged(deleted)
	}
}

// drain relays what is left during shutdown.
func (w *Worker) drain() {
	w.logger.Info("draining outbox worker")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		n, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("failed to fetch entries during drain", "error", err)
			return
		}
		if n == 0 {
			return
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateMetrics refreshes the pending depth gauge.
func (w *Worker) UpdateMetrics(ctx context.Context) error {
	if w.metrics == nil {
		return nil
	}

	count, err := w.store.CountPending(ctx)
	if err != nil {
		return err
	}

	w.metrics.SetPendingDepth(count)
	return nil
}
