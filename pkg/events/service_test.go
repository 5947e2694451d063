package events

import (
	"context"
	"database/sql"
	"testing"
	"time"

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

func TestCreateEventTx(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

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
	err := CreateEventTx(ctx, db, event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Equal(t, models.EventStatusPending, event.Status)
	assert.NotEmpty(t, event.Data)

	fetched, err := svc.RetrieveEvent(ctx, event.ID)
	require.NoError(t, err)
	data, ok := fetched.DataParsed.(*models.BookFinishedData)
	require.True(t, ok)
	assert.Equal(t, 2, data.BookID)
	assert.Equal(t, models.EventTypeBookFinished, data.Event)
}

func TestCreateEventTx_RollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	sentinel := assert.AnError
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		event := &models.Event{
			UserID:     1,
			BookID:     2,
			Type:       models.EventTypeBookFinished,
			DataParsed: &models.BookFinishedData{UserID: 1, BookID: 2},
		}
		if err := CreateEventTx(ctx, tx, event); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	events, err := svc.ListEvents(ctx, ListEventsOptions{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListEvents_Filters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		event := &models.Event{
			UserID:     1,
			BookID:     i + 1,
			Type:       models.EventTypeBookFinished,
			DataParsed: &models.BookFinishedData{UserID: 1, BookID: i + 1},
		}
		require.NoError(t, CreateEventTx(ctx, db, event))
	}

	events, err := svc.ListEvents(ctx, ListEventsOptions{
		Statuses: []string{models.EventStatusPending},
	})
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Claim one and mark it delivered.
	claimed := events[0]
	processID := "abcd1234"
	claimed.ProcessID = &processID
	claimed.Status = models.EventStatusDelivered
	err = svc.UpdateEvent(ctx, claimed, UpdateEventOptions{Columns: []string{"process_id", "status"}})
	require.NoError(t, err)

	pending, err := svc.ListEvents(ctx, ListEventsOptions{
		Statuses: []string{models.EventStatusPending},
	})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
