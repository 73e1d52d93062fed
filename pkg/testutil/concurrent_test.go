package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"licences/pkg/platform/sentinel"
)

func TestRunConcurrentClassifies(t *testing.T) {
	res := RunConcurrent(8, func(idx int) error {
		switch idx % 4 {
		case 0:
			return nil
		case 1:
			return fmt.Errorf("update licence: %w", sentinel.ErrConflict)
		case 2:
			return sentinel.ErrNotFound
		default:
			return fmt.Errorf("boom")
		}
	})

	assert.EqualValues(t, 2, res.Successes)
	assert.EqualValues(t, 2, res.Conflicts)
	assert.EqualValues(t, 2, res.NotFounds)
	assert.EqualValues(t, 2, res.Errors)
	assert.EqualValues(t, 8, res.Total())
}
