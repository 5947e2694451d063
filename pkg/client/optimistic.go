package client

import (
	"context"
	"sync"
)

// Mutation bundles the phases of an optimistic update over a local collection
// of type T. Apply runs before the server call so the UI updates immediately;
// Call issues the server request; Reconcile (optional) folds the server's
// canonical response back in on success; Refetch (optional) replaces the
// rollback snapshot with fresh server state on failure.
type Mutation[T any] struct {
	Apply     func(T) T
	Call      func(ctx context.Context) error
	Reconcile func(T) T
	Refetch   func(ctx context.Context) (T, error)
}

// Collection holds local state rendered by the UI and tracks in-flight
// mutations per book. Every mutating operation goes through Mutate, so
// rollback handling is uniform rather than re-implemented per call site.
type Collection[T any] struct {
	mu      sync.Mutex
	value   T
	pending map[int]int
}

func NewCollection[T any](initial T) *Collection[T] {
	return &Collection[T]{
		value:   initial,
		pending: map[int]int{},
	}
}

// Get returns the current local value.
func (c *Collection[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the local value, e.g. after an initial fetch.
func (c *Collection[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
}

// Pending reports whether a mutation for the book is still in flight. UIs use
// this to disable controls for just that book.
func (c *Collection[T]) Pending(bookID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[bookID] > 0
}

// Mutate runs the optimistic protocol: snapshot the current value, apply the
// mutation locally, issue the server call, then reconcile on success or roll
// back on failure. The returned error is the server call's error, so callers
// can still surface a notice after the state has been restored.
func (c *Collection[T]) Mutate(ctx context.Context, bookID int, m Mutation[T]) error {
	c.mu.Lock()
	snapshot := c.value
	c.value = m.Apply(c.value)
	c.pending[bookID]++
	c.mu.Unlock()

	err := m.Call(ctx)

	var fresh T
	refetched := false
	if err != nil && m.Refetch != nil {
		if f, ferr := m.Refetch(ctx); ferr == nil {
			fresh = f
			refetched = true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[bookID]--
	if c.pending[bookID] <= 0 {
		delete(c.pending, bookID)
	}

	switch {
	case err == nil:
		if m.Reconcile != nil {
			c.value = m.Reconcile(c.value)
		}
	case refetched:
		c.value = fresh
	default:
		c.value = snapshot
	}

	return err
}
