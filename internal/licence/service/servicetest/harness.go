// Package servicetest wires a licence service over in-memory stores for
// tests in other packages.
package servicetest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"licences/internal/events"
	"licences/internal/licence/metrics"
	"licences/internal/licence/models"
	"licences/internal/licence/service"
	"licences/internal/licence/store"
	"licences/pkg/platform/audit"
	auditmemory "licences/pkg/platform/audit/store/memory"
	"licences/pkg/platform/audit/publisher"
	outboxmemory "licences/pkg/platform/outbox/store/memory"
	"licences/pkg/platform/tx"
	"licences/pkg/requestcontext"
)

// Harness exposes the service together with the stores behind it.
type Harness struct {
	Service  *service.Service
	Licences *store.InMemoryStore
	Events   *store.InMemoryEventStore
	Audit    *auditmemory.InMemoryStore
	Outbox   *outboxmemory.Store
	Tx       *tx.MemoryTx
	Metrics  *metrics.Metrics
}

func New(t testing.TB) *Harness {
	t.Helper()
	h := &Harness{
		Licences: store.New(),
		Events:   store.NewEventStore(),
		Audit:    auditmemory.NewInMemoryStore(),
		Outbox:   outboxmemory.New(),
		Metrics:  metrics.New(prometheus.NewRegistry()),
	}
	h.Tx = tx.NewMemoryTx(h.Licences, h.Events, h.Audit, h.Outbox)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.Service = service.New(
		h.Licences,
		h.Events,
		h.Tx,
		audit.NewLogger(logger, publisher.NewPublisher(h.Audit)),
		events.NewOutboxPublisher(h.Outbox),
		service.WithMetrics(h.Metrics),
		service.WithLogger(logger),
	)
	return h
}

// At returns a context pinned to the given instant.
func At(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

// Seed stores l as-is, bypassing the service, and returns the stored copy.
func (h *Harness) Seed(t testing.TB, l models.Licence) models.Licence {
	t.Helper()
	saved, err := h.Licences.Create(context.Background(), l)
	require.NoError(t, err)
	return saved
}

// Reload fetches the current state of a licence.
func (h *Harness) Reload(t testing.TB, id int64) models.Licence {
	t.Helper()
	l, err := h.Licences.Get(context.Background(), id)
	require.NoError(t, err)
	return l
}

// EventTypes lists the licence event types recorded for id, oldest first.
func (h *Harness) EventTypes(id int64) []models.EventType {
	var out []models.EventType
	for _, e := range h.Events.All() {
		if e.LicenceID == id {
			out = append(out, e.Type)
		}
	}
	return out
}

// DomainEventTypes lists the outbox event types, oldest first.
func (h *Harness) DomainEventTypes() []string {
	var out []string
	for _, e := range h.Outbox.Entries() {
		out = append(out, e.EventType)
	}
	return out
}
