package tx

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	dErrors "licences/pkg/domain-errors"
)

// PostgresTx runs functions inside a database transaction carried in ctx.
// Nested calls join the outer transaction.
type PostgresTx struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPostgresTx(db *sqlx.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

// WithTimeout sets the default deadline applied when ctx has none.
func (t *PostgresTx) WithTimeout(d time.Duration) *PostgresTx {
	t.timeout = d
	return t
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, ok := From(ctx); ok {
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

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
