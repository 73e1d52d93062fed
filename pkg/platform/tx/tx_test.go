package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "licences/pkg/domain-errors"
)

type counter struct{ n int }

func (c *counter) Snapshot() func() {
	saved := c.n
	return func() { c.n = saved }
}

func TestMemoryTxRestoresOnError(t *testing.T) {
	c := &counter{}
	runner := NewMemoryTx(c)

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		c.n = 5
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, c.n)

	require.NoError(t, runner.RunInTx(context.Background(), func(ctx context.Context) error {
		c.n = 7
		return nil
	}))
	assert.Equal(t, 7, c.n)
}

func TestMemoryTxNestedCallsJoin(t *testing.T) {
	c := &counter{}
	runner := NewMemoryTx(c)

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		c.n = 1
		// Re-entering would deadlock if the nested call took the lock again.
		if err := runner.RunInTx(ctx, func(context.Context) error {
			c.n = 2
			return nil
		}); err != nil {
			return err
		}
		return errors.New("outer fails")
	})
	require.Error(t, err)
	assert.Equal(t, 0, c.n, "inner work is rolled back with the outer transaction")
}

func TestMemoryTxCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemoryTx().RunInTx(ctx, func(context.Context) error { return nil })
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestPostgresTxCommitsAndRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	runner := NewPostgresTx(sqlx.NewDb(db, "pgx"))

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, runner.RunInTx(context.Background(), func(ctx context.Context) error {
		_, ok := From(ctx)
		assert.True(t, ok)
		return nil
	}))

	mock.ExpectBegin()
	mock.ExpectRollback()
	err = runner.RunInTx(context.Background(), func(ctx context.Context) error {
		return runner.RunInTx(ctx, func(context.Context) error { return errors.New("nested failure") })
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
