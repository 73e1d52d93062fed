package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"licences/internal/caseload/adapters"
	cmetrics "licences/internal/caseload/metrics"
	"licences/internal/caseload/ports"
	caseload "licences/internal/caseload/service"
	"licences/internal/caseload/tracer"
	"licences/internal/events"
	lmetrics "licences/internal/licence/metrics"
	"licences/internal/licence/service"
	"licences/internal/licence/store"
	"licences/internal/licence/workers"
	"licences/internal/notify"
	"licences/internal/platform/config"
	"licences/internal/platform/database"
	"licences/internal/platform/health"
	"licences/internal/platform/kafka"
	"licences/internal/platform/kafka/producer"
	"licences/internal/platform/metrics"
	redisclient "licences/internal/platform/redis"
	"licences/internal/releasedates"
	httptransport "licences/internal/transport/http"
	"licences/internal/upstream"
	"licences/internal/workingdays"
	"licences/pkg/platform/audit"
	"licences/pkg/platform/audit/publisher"
	auditmemory "licences/pkg/platform/audit/store/memory"
	auditpostgres "licences/pkg/platform/audit/store/postgres"
	"licences/pkg/platform/outbox"
	outboxmetrics "licences/pkg/platform/outbox/metrics"
	outboxmemory "licences/pkg/platform/outbox/store/memory"
	outboxpostgres "licences/pkg/platform/outbox/store/postgres"
	"licences/pkg/platform/outbox/worker"
	"licences/pkg/platform/tx"
)

// app holds everything main starts and stops.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	router http.Handler
	runner *workers.Runner
	outbox *worker.Worker

	pool     *database.Pool
	redis    *redisclient.Client
	producer *producer.Producer
	audit    *publisher.Publisher
}

type persistence struct {
	licences service.Store
	events   service.EventStore
	tx       service.StoreTx
	audit    audit.Store
	outbox   outbox.Store
}

// build wires the service graph. Without a database URL every store is in
// memory, which is only suitable for local runs.
func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	reg := prometheus.DefaultRegisterer
	checks := health.New(cfg.Server.Environment)

	pool, err := database.New(ctx, database.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a.pool = pool
	p := a.persistence()
	if pool != nil {
		checks.RegisterCheck("database", pool.Health)
	} else {
		logger.Warn("database not configured, using in-memory stores")
	}

	if a.redis, err = redisclient.New(ctx, cfg.Redis); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if a.redis != nil {
		checks.RegisterCheck("redis", a.redis.Health)
	}

	prod, err := a.kafkaProducer(ctx)
	if err != nil {
		return nil, err
	}
	if a.producer != nil {
		checks.RegisterCheck("kafka", a.producer.Health)
	}
	a.outbox = worker.New(p.outbox, prod,
		worker.WithTopic(cfg.Kafka.DomainTopic),
		worker.WithBatchSize(cfg.Kafka.OutboxBatch),
		worker.WithPollInterval(cfg.Kafka.OutboxPoll),
		worker.WithRetention(cfg.Kafka.OutboxRetention),
		worker.WithMetrics(outboxmetrics.New(reg)),
		worker.WithLogger(logger),
	)

	licenceMetrics := lmetrics.New(reg)
	a.audit = publisher.NewPublisher(p.audit, publisher.WithPublisherLogger(logger))
	licences := service.New(p.licences, p.events, p.tx,
		audit.NewLogger(logger, a.audit),
		events.NewOutboxPublisher(p.outbox),
		service.WithMetrics(licenceMetrics),
		service.WithLogger(logger),
	)

	calendar, err := workingdays.Load(cfg.Jobs.BankHolidaysFile)
	if err != nil {
		return nil, err
	}
	dates := releasedates.New(calendar, releasedates.WithHardStopWorkingDays(cfg.Jobs.HardStopWorkingDays))

	upstreamOpts := []upstream.Option{
		upstream.WithLogger(logger),
		upstream.WithMetrics(upstream.NewMetrics(reg)),
		upstream.WithTimeout(cfg.Upstream.Timeout),
	}
	prisonAPI := upstream.NewPrisonAPI(cfg.Upstream.PrisonAPIURL, upstreamOpts...)
	delius := upstream.NewDelius(cfg.Upstream.DeliusURL, upstreamOpts...)
	caseloadMetrics := cmetrics.New(reg)
	var search ports.PrisonerSearch = upstream.NewPrisonerSearch(cfg.Upstream.PrisonerSearchURL, upstreamOpts...)
	if a.redis != nil {
		search = adapters.NewCachedPrisonerSearch(search, a.redis.Client, cfg.Redis.CacheTTL, caseloadMetrics, logger)
	}

	caseloads, err := caseload.New(licences, search, prisonAPI, delius, dates,
		caseload.WithTracer(tracer.NewOTel()),
		caseload.WithMetrics(caseloadMetrics),
		caseload.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	registry := a.jobs(licences, dates, prisonAPI, search, a.sender(), licenceMetrics)

	a.router = httptransport.NewRouter(httptransport.Deps{
		Logger:     logger,
		Health:     checks,
		Metrics:    metrics.New(reg),
		AdminToken: cfg.Server.AdminToken,
		Jobs:       registry,
		Caseload:   caseloads,
		Licences:   licences,
	})
	return a, nil
}

func (a *app) persistence() persistence {
	if a.pool != nil {
		db := a.pool.DB()
		return persistence{
			licences: store.NewPostgres(db),
			events:   store.NewPostgresEventStore(db),
			tx:       tx.NewPostgresTx(db),
			audit:    auditpostgres.New(db),
			outbox:   outboxpostgres.New(db),
		}
	}
	licences, evs := store.New(), store.NewEventStore()
	auditStore, outboxStore := auditmemory.NewInMemoryStore(), outboxmemory.New()
	return persistence{
		licences: licences,
		events:   evs,
		tx:       tx.NewMemoryTx(licences, evs, auditStore, outboxStore),
		audit:    auditStore,
		outbox:   outboxStore,
	}
}

// kafkaProducer returns the relay's producer. Without brokers the outbox
// keeps domain events pending.
func (a *app) kafkaProducer(ctx context.Context) (worker.Producer, error) {
	cfg := a.cfg.Kafka
	if cfg.Brokers == "" {
		a.logger.Warn("kafka not configured, domain events stay in the outbox")
		return producer.NewNoopProducer(a.logger), nil
	}
	p, err := producer.New(producer.Config{
		Brokers:         cfg.Brokers,
		ClientID:        cfg.ClientID,
		Acks:            cfg.Acks,
		Retries:         cfg.Retries,
		DeliveryTimeout: cfg.DeliveryTimeout,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}
	a.producer = p
	topic := kafka.TopicSpec{Name: cfg.DomainTopic, Partitions: 3, ReplicationFactor: 1}
	if err := kafka.EnsureTopics(ctx, p.Client(), topic); err != nil {
		a.logger.Warn("could not ensure kafka topic", "topic", cfg.DomainTopic, "error", err)
	}
	return p, nil
}

func (a *app) sender() notify.Sender {
	n := a.cfg.Notify
	if !n.Enabled {
		return notify.NewNoopSender(a.logger)
	}
	return notify.New(n.URL, n.APIKey, n.FromEmail, notify.WithLogger(a.logger))
}

// jobs builds every lifecycle job, schedules it on its own interval and
// returns the registry used for manual runs.
func (a *app) jobs(
	licences *service.Service,
	dates *releasedates.Service,
	prison *upstream.PrisonAPI,
	search workers.PrisonerSearch,
	sender notify.Sender,
	m *lmetrics.Metrics,
) *workers.Registry {
	cfg := a.cfg.Jobs
	opts := []workers.Option{workers.WithLogger(a.logger), workers.WithMetrics(m)}
	a.runner = workers.NewRunner(
		workers.WithRunTimeout(cfg.RunTimeout),
		workers.WithRunnerMetrics(m),
		workers.WithRunnerLogger(a.logger),
	)

	scheduled := []struct {
		job   workers.Job
		every time.Duration
	}{
		{workers.NewTimeOutJob(licences, dates, sender, opts...), cfg.TimeOutInterval},
		{workers.NewActivationJob(licences, prison, opts...), cfg.ActivationInterval},
		{workers.NewExpiryJob(licences, opts...), cfg.ExpiryInterval},
		{workers.NewIneligibleHDCJob(licences, prison, opts...), cfg.HDCInterval},
		{workers.NewRecallJob(licences, search, opts...), cfg.RecallInterval},
		{workers.NewReviewJob(licences, sender, opts...), cfg.ReviewInterval},
		{workers.NewConditionsJob(licences, opts...), cfg.ConditionsInterval},
		{workers.NewUnapprovedJob(licences, sender, opts...), cfg.UnapprovedInterval},
	}
	all := make([]workers.Job, 0, len(scheduled))
	for _, s := range scheduled {
		a.runner.Schedule(s.job, s.every)
		all = append(all, s.job)
	}
	return workers.NewRegistry(a.runner, all...)
}

// writeTimeout leaves room for manual job runs, which are bounded by the
// run timeout rather than the request timeout.
func (a *app) writeTimeout() time.Duration {
	return a.cfg.Jobs.RunTimeout + 30*time.Second
}

// close drains the outbox relay and releases connections.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if err := a.outbox.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("outbox: %w", err))
	}
	a.audit.Close()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}
