package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"licences/pkg/platform/circuit"
	"licences/pkg/requestcontext"
)

const defaultTimeout = 10 * time.Second

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures an upstream client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *client) {
		if b != nil {
			c.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *client) {
		c.metrics = m
	}
}

// WithTimeout bounds each request when the default HTTP client is used.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// client is the shared JSON-over-HTTP plumbing behind every upstream client.
type client struct {
	name    string
	baseURL string
	timeout time.Duration
	http    HTTPDoer
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
}

func newClient(name, baseURL string, opts ...Option) *client {
	c := &client{
		name:    name,
		baseURL: baseURL,
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.breaker == nil {
		c.breaker = circuit.New(name, circuit.WithStateChange(c.logStateChange))
	}
	return c
}

func (c *client) logStateChange(name string, from, to circuit.State) {
	c.logger.Warn("upstream circuit state changed",
		"upstream", name,
		"from", from.String(),
		"to", to.String(),
	)
	c.metrics.setBreakerState(name, to)
}

func (c *client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, u, nil, out)
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return newError(ErrorInternal, c.name, "failed to marshal request", 0, err)
	}
	return c.do(ctx, http.MethodPost, c.baseURL+path, payload, out)
}

func (c *client) do(ctx context.Context, method, u string, payload []byte, out any) error {
	start := time.Now()
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.roundTrip(ctx, method, u, payload, out)
	})
	c.metrics.observe(c.name, time.Since(start), err)
	if err != nil && !errors.Is(err, circuit.ErrOpen) && CategoryOf(err) != ErrorNotFound {
		c.logger.WarnContext(ctx, "upstream request failed",
			"upstream", c.name,
			"method", method,
			"error", err,
		)
	}
	return err
}

func (c *client) roundTrip(ctx context.Context, method, u string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return newError(ErrorInternal, c.name, "failed to create request", 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return newError(ErrorTimeout, c.name, "request timeout", 0, err)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return newError(ErrorOutage, c.name, "failed to execute request", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return newError(ErrorBadData, c.name, "failed to read response", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return newError(ErrorNotFound, c.name, "not found", resp.StatusCode, nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return newError(ErrorAuthentication, c.name, "authentication failed", resp.StatusCode, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return newError(ErrorRateLimited, c.name, "rate limited", resp.StatusCode, nil)
	case resp.StatusCode == http.StatusBadRequest:
		return newError(ErrorBadData, c.name, "rejected request: "+truncate(respBody), resp.StatusCode, nil)
	case resp.StatusCode >= 500:
		return newError(ErrorOutage, c.name, fmt.Sprintf("status %d", resp.StatusCode), resp.StatusCode, nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return newError(ErrorInternal, c.name, fmt.Sprintf("unexpected status %d", resp.StatusCode), resp.StatusCode, nil)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return newError(ErrorBadData, c.name, "failed to decode response", resp.StatusCode, err)
	}
	return nil
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// chunks splits ids into slices of at most size elements.
func chunks[T any](ids []T, size int) [][]T {
	var out [][]T
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
