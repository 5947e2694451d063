package database

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBusyError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.False(t, IsBusyError(nil))
	})

	t.Run("busy errors", func(t *testing.T) {
		busy := []error{
			errors.New("database is locked"),
			errors.New("database table is locked"),
			errors.New("SQLITE_BUSY: unable to acquire lock"),
			errors.New("sqlite error (5)"),
		}
		for _, err := range busy {
			assert.True(t, IsBusyError(err), err.Error())
		}
	})

	t.Run("other errors", func(t *testing.T) {
		assert.False(t, IsBusyError(errors.New("UNIQUE constraint failed")))
	})
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds without retry", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(ctx, 3, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries busy errors until success", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(ctx, 3, func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry non-busy errors", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(ctx, 3, func() error {
			calls++
			return errors.New("UNIQUE constraint failed")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(ctx, 2, func() error {
			calls++
			return errors.New("database is locked")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()

		err := retryWithBackoff(cancelCtx, 10, func() error {
			return errors.New("database is locked")
		})
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
