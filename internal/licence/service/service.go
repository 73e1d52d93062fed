// Package service applies licence transitions and records their history.
//
// Every operation runs inside StoreTx.RunInTx. The licence update, its
// licence event, its audit event and any domain event commit together or not
// at all. Calls made while a transaction is already open (lifecycle jobs)
// join it.
package service

import (
	"context"
	"log/slog"

	"licences/internal/events"
	"licences/internal/licence/metrics"
	"licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/pkg/platform/audit"
)

// Store persists licences. See package store for the error contract.
type Store interface {
	Create(ctx context.Context, l models.Licence) (models.Licence, error)
	Update(ctx context.Context, l models.Licence) (models.Licence, error)
	Get(ctx context.Context, id int64) (models.Licence, error)
	List(ctx context.Context, f store.Filter) ([]models.Licence, error)
}

// EventStore is the append-only licence event history.
type EventStore interface {
	Append(ctx context.Context, e models.LicenceEvent) (int64, error)
	ListByLicence(ctx context.Context, licenceID int64) ([]models.LicenceEvent, error)
}

// StoreTx provides the transactional boundary. Nested calls join the
// transaction already carried by ctx.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditRecorder is satisfied by audit.Logger.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event) error
}

// EventPublisher is satisfied by events.OutboxPublisher.
type EventPublisher interface {
	Publish(ctx context.Context, e events.DomainEvent) error
}

type Option func(*Service)

type Service struct {
	store     Store
	events    EventStore
	tx        StoreTx
	auditor   AuditRecorder
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(store Store, events EventStore, tx StoreTx, auditor AuditRecorder, publisher EventPublisher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		events:    events,
		tx:        tx,
		auditor:   auditor,
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// RunInTx exposes the service's transaction boundary so lifecycle jobs can
// group a whole run into one unit.
func (s *Service) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.RunInTx(ctx, fn)
}
