package client

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutateCommitsOnSuccess(t *testing.T) {
	t.Parallel()

	queue := NewCollection([]int{1, 2, 3})
	ctx := context.Background()

	err := queue.Mutate(ctx, 3, Mutation[[]int]{
		Apply: func(ids []int) []int {
			return []int{3, 1, 2}
		},
		Call: func(ctx context.Context) error {
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, queue.Get())
	assert.False(t, queue.Pending(3))
}

func TestMutateRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	queue := NewCollection([]int{1, 2, 3})
	ctx := context.Background()
	callErr := errors.New("invalid_reorder")

	err := queue.Mutate(ctx, 2, Mutation[[]int]{
		Apply: func(ids []int) []int {
			return []int{2, 1, 3}
		},
		Call: func(ctx context.Context) error {
			// The local change must be visible while the call is in flight.
			assert.Equal(t, []int{2, 1, 3}, queue.Get())
			assert.True(t, queue.Pending(2))
			return callErr
		},
	})
	require.ErrorIs(t, err, callErr)
	assert.Equal(t, []int{1, 2, 3}, queue.Get())
	assert.False(t, queue.Pending(2))
}

func TestMutateRefetchesOnFailure(t *testing.T) {
	t.Parallel()

	queue := NewCollection([]int{1, 2, 3})
	ctx := context.Background()
	callErr := errors.New("invalid_reorder")

	err := queue.Mutate(ctx, 1, Mutation[[]int]{
		Apply: func(ids []int) []int {
			return []int{3, 2, 1}
		},
		Call: func(ctx context.Context) error {
			return callErr
		},
		Refetch: func(ctx context.Context) ([]int, error) {
			// Server truth moved on while we were racing.
			return []int{2, 3}, nil
		},
	})
	require.ErrorIs(t, err, callErr)
	assert.Equal(t, []int{2, 3}, queue.Get())
}

func TestMutateReconcilesServerDefaults(t *testing.T) {
	t.Parallel()

	type entry struct {
		BookID   int
		Position int
	}

	queue := NewCollection([]entry{{BookID: 1, Position: 1}})
	ctx := context.Background()

	// Simulates an append where the server assigns the position.
	serverAssigned := 2

	err := queue.Mutate(ctx, 5, Mutation[[]entry]{
		Apply: func(entries []entry) []entry {
			return append(entries, entry{BookID: 5})
		},
		Call: func(ctx context.Context) error {
			return nil
		},
		Reconcile: func(entries []entry) []entry {
			for i := range entries {
				if entries[i].BookID == 5 {
					entries[i].Position = serverAssigned
				}
			}
			return entries
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []entry{{BookID: 1, Position: 1}, {BookID: 5, Position: 2}}, queue.Get())
}

func TestMutateTracksPendingPerBook(t *testing.T) {
	t.Parallel()

	shelf := NewCollection(map[int]string{})
	ctx := context.Background()

	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = shelf.Mutate(ctx, 7, Mutation[map[int]string]{
			Apply: func(m map[int]string) map[int]string {
				next := map[int]string{}
				for k, v := range m {
					next[k] = v
				}
				next[7] = "queue"
				return next
			},
			Call: func(ctx context.Context) error {
				<-release
				return nil
			},
		})
	}()

	// Wait for the mutation to be applied locally.
	for !shelf.Pending(7) {
		time.Sleep(time.Millisecond)
	}
	assert.True(t, shelf.Pending(7))
	assert.False(t, shelf.Pending(8))

	close(release)
	<-done
	assert.False(t, shelf.Pending(7))
}
