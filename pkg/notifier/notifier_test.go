package notifier

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pagemark/pagemark/pkg/config"
	"github.com/pagemark/pagemark/pkg/events"
	"github.com/pagemark/pagemark/pkg/migrations"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func seedEvent(ctx context.Context, t *testing.T, db *bun.DB) *models.Event {
	t.Helper()

	event := &models.Event{
		UserID: 1,
		BookID: 2,
		Type:   models.EventTypeBookFinished,
		DataParsed: &models.BookFinishedData{
			UserID:    1,
			Event:     models.EventTypeBookFinished,
			BookID:    2,
			Timestamp: time.Now(),
		},
	}
	err := events.CreateEventTx(ctx, db, event)
	require.NoError(t, err)

	return event
}

func eventStatus(ctx context.Context, t *testing.T, db *bun.DB, id int) (string, int) {
	t.Helper()

	event := &models.Event{}
	err := db.NewSelect().Model(event).Where("e.id = ?", id).Scan(ctx)
	require.NoError(t, err)

	return event.Status, event.Attempts
}

func waitForStatus(ctx context.Context, t *testing.T, db *bun.DB, id int, want string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, _ := eventStatus(ctx, t, db, id)
		if status == want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	status, attempts := eventStatus(ctx, t, db, id)
	t.Fatalf("event %d never reached status %q (status=%q attempts=%d)", id, want, status, attempts)
}

func TestNotifierDelivers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	var received atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	event := seedEvent(ctx, t, db)

	n := New(&config.Config{NotifierProcesses: 1, GoalTrackerURL: server.URL}, db)
	n.fetchInterval = 20 * time.Millisecond
	n.Start()
	t.Cleanup(n.Shutdown)

	waitForStatus(ctx, t, db, event.ID, models.EventStatusDelivered)
	assert.Equal(t, int64(1), received.Load())
}

func TestNotifierMarksFailedAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	event := seedEvent(ctx, t, db)

	n := New(&config.Config{NotifierProcesses: 1, GoalTrackerURL: server.URL}, db)
	n.fetchInterval = 20 * time.Millisecond
	n.Start()
	t.Cleanup(n.Shutdown)

	waitForStatus(ctx, t, db, event.ID, models.EventStatusFailed)
	_, attempts := eventStatus(ctx, t, db, event.ID)
	assert.Equal(t, events.MaxAttempts, attempts)
}
