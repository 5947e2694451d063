package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(server.URL)
	require.NoError(t, err)

	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestSetShelf(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/shelves/set", r.URL.Path)

		payload := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(42), payload["book_id"])
		assert.Equal(t, "queue", payload["shelf"])

		position := 3
		writeJSON(t, w, http.StatusOK, &models.ShelfRecord{
			UserID:        1,
			BookID:        42,
			Shelf:         models.ShelfQueue,
			QueuePosition: &position,
		})
	})

	record, err := c.SetShelf(context.Background(), 42, models.ShelfQueue, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ShelfQueue, record.Shelf)
	require.NotNil(t, record.QueuePosition)
	assert.Equal(t, 3, *record.QueuePosition)
}

func TestReorderQueue_TypedError(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, map[string]interface{}{
			"error": map[string]interface{}{
				"code":        "invalid_reorder",
				"message":     "The supplied book ids don't match the current queue.",
				"status_code": http.StatusConflict,
			},
		})
	})

	err := c.ReorderQueue(context.Background(), []int{2, 1})
	require.Error(t, err)

	typed := &errcodes.Error{}
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, "invalid_reorder", typed.Code)
	assert.Equal(t, http.StatusConflict, typed.HTTPCode)
}

func TestToggleFavorite(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/7/favorite", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]bool{"is_favorite": true})
	})

	isFavorite, err := c.ToggleFavorite(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, isFavorite)
}

func TestListQueue(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shelves/queue", r.URL.Path)

		p1, p2 := 1, 2
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"records": []*models.ShelfRecord{
				{BookID: 5, Shelf: models.ShelfQueue, QueuePosition: &p1},
				{BookID: 9, Shelf: models.ShelfQueue, QueuePosition: &p2},
			},
		})
	})

	records, err := c.ListQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 5, records[0].BookID)
	assert.Equal(t, 9, records[1].BookID)
}

func TestOptimisticReorderAgainstServer(t *testing.T) {
	t.Parallel()

	// Server rejects the reorder; the local queue must roll back and the
	// refetched canonical order must win.
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shelves/queue/reorder":
			writeJSON(t, w, http.StatusConflict, map[string]interface{}{
				"error": map[string]interface{}{
					"code":        "invalid_reorder",
					"message":     "The supplied book ids don't match the current queue.",
					"status_code": http.StatusConflict,
				},
			})
		case "/shelves/queue":
			p1 := 1
			writeJSON(t, w, http.StatusOK, map[string]interface{}{
				"records": []*models.ShelfRecord{
					{BookID: 4, Shelf: models.ShelfQueue, QueuePosition: &p1},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	queue := NewCollection([]int{3, 4})

	err := queue.Mutate(ctx, 3, Mutation[[]int]{
		Apply: func(ids []int) []int {
			return []int{4, 3}
		},
		Call: func(ctx context.Context) error {
			return c.ReorderQueue(ctx, []int{4, 3})
		},
		Refetch: func(ctx context.Context) ([]int, error) {
			records, err := c.ListQueue(ctx)
			if err != nil {
				return nil, err
			}
			ids := make([]int, 0, len(records))
			for _, record := range records {
				ids = append(ids, record.BookID)
			}
			return ids, nil
		},
	})
	require.Error(t, err)

	typed := &errcodes.Error{}
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, "invalid_reorder", typed.Code)
	assert.Equal(t, []int{4}, queue.Get())
}
