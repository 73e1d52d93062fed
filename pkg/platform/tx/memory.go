package tx

import (
	"context"
	"sync"
	"time"

	dErrors "licences/pkg/domain-errors"
)

// Snapshotter is implemented by in-memory stores that take part in a
// MemoryTx. Snapshot captures current state and returns a func restoring it.
type Snapshotter interface {
	Snapshot() (restore func())
}

type memoryTxKey struct{}

const defaultTxTimeout = 5 * time.Second

// MemoryTx serializes mutations across in-memory stores and restores every
// participant when the transaction function fails. Nested calls join the
// outer transaction.
type MemoryTx struct {
	mu           sync.Mutex
	participants []Snapshotter
	timeout      time.Duration
}

// NewMemoryTx creates a transaction runner over the given stores.
func NewMemoryTx(participants ...Snapshotter) *MemoryTx {
	return &MemoryTx{participants: participants}
}

// WithTimeout sets the default deadline applied when ctx has none.
func (t *MemoryTx) WithTimeout(d time.Duration) *MemoryTx {
	t.timeout = d
	return t
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if ctx.Value(memoryTxKey{}) == t {
		return fn(ctx)
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	restores := make([]func(), 0, len(t.participants))
	for _, p := range t.participants {
		restores = append(restores, p.Snapshot())
	}

	if err := fn(context.WithValue(ctx, memoryTxKey{}, t)); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return err
	}
	return nil
}
