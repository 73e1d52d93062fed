// Package adapters holds infrastructure implementations of the caseload ports.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"

	"licences/internal/caseload/metrics"
	"licences/internal/caseload/ports"
	"licences/internal/upstream"
)

const prisonerKeyPrefix = "caseload:prisoner:"

// DefaultCacheTTL is used when no TTL is configured.
const DefaultCacheTTL = 2 * time.Minute

// CachedPrisonerSearch keeps prisoner records in Redis for a short TTL so
// repeated caseload views do not hit prisoner search for every offender.
// Cache failures never fail a lookup; the records are fetched upstream instead.
type CachedPrisonerSearch struct {
	next    ports.PrisonerSearch
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCachedPrisonerSearch wraps next with a Redis cache. metrics may be nil.
func NewCachedPrisonerSearch(next ports.PrisonerSearch, client *redis.Client, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *CachedPrisonerSearch {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedPrisonerSearch{next: next, client: client, ttl: ttl, metrics: m, logger: logger}
}

// SearchByNomsIDs serves what it can from Redis with a single MGET, fetches
// the rest from prisoner search and writes them back in one pipeline.
func (c *CachedPrisonerSearch) SearchByNomsIDs(ctx context.Context, nomsIDs []string) ([]upstream.Prisoner, error) {
	if len(nomsIDs) == 0 {
		return nil, nil
	}
	cached, missing := c.load(ctx, nomsIDs)
	c.metrics.AddCache(len(cached), len(missing))
	if len(missing) == 0 {
		return cached, nil
	}

	fetched, err := c.next.SearchByNomsIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	c.save(ctx, fetched)
	return append(cached, fetched...), nil
}

// SearchByReleaseDate is not cached: the result set depends on the date window.
func (c *CachedPrisonerSearch) SearchByReleaseDate(ctx context.Context, prisonCodes []string, from, to civil.Date) ([]upstream.Prisoner, error) {
	prisoners, err := c.next.SearchByReleaseDate(ctx, prisonCodes, from, to)
	if err != nil {
		return nil, err
	}
	c.save(ctx, prisoners)
	return prisoners, nil
}

func (c *CachedPrisonerSearch) load(ctx context.Context, nomsIDs []string) ([]upstream.Prisoner, []string) {
	keys := make([]string, len(nomsIDs))
	for i, id := range nomsIDs {
		keys[i] = prisonerKey(id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.fail(ctx, "read", err)
		return nil, nomsIDs
	}

	var (
		found   []upstream.Prisoner
		missing []string
	)
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, nomsIDs[i])
			continue
		}
		var p upstream.Prisoner
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			c.fail(ctx, "decode", err)
			missing = append(missing, nomsIDs[i])
			continue
		}
		found = append(found, p)
	}
	return found, missing
}

func (c *CachedPrisonerSearch) save(ctx context.Context, prisoners []upstream.Prisoner) {
	if len(prisoners) == 0 {
		return
	}
	pipe := c.client.Pipeline()
	for _, p := range prisoners {
		payload, err := json.Marshal(p)
		if err != nil {
			c.fail(ctx, "encode", err)
			continue
		}
		pipe.Set(ctx, prisonerKey(p.PrisonerNumber), payload, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.fail(ctx, "write", err)
	}
}

func (c *CachedPrisonerSearch) fail(ctx context.Context, op string, err error) {
	c.metrics.IncCacheError()
	c.logger.WarnContext(ctx, "prisoner cache "+op+" failed", "error", fmt.Errorf("redis: %w", err))
}

func prisonerKey(nomsID string) string {
	return prisonerKeyPrefix + nomsID
}
