package events

import (
	"context"
	"database/sql"
	"time"

	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// MaxAttempts is how many delivery attempts an event gets before it is marked
// failed and left for manual inspection.
const MaxAttempts = 5

type ListEventsOptions struct {
	Limit              *int
	Offset             *int
	Statuses           []string
	ProcessIDToExclude *string
}

type UpdateEventOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateEventTx inserts an outbox row using the caller's transaction. Shelf
// transitions call this so the event commits or rolls back together with the
// record change that produced it.
func CreateEventTx(ctx context.Context, idb bun.IDB, event *models.Event) error {
	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = event.CreatedAt
	if event.Status == "" {
		event.Status = models.EventStatusPending
	}

	if event.Data == "" && event.DataParsed != nil {
		if err := event.MarshalData(); err != nil {
			return err
		}
	}

	_, err := idb.
		NewInsert().
		Model(event).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveEvent(ctx context.Context, id int) (*models.Event, error) {
	event := &models.Event{}

	err := svc.db.
		NewSelect().
		Model(event).
		Where("e.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Event")
		}
		return nil, errors.WithStack(err)
	}

	if event.Data != "" {
		if err := event.UnmarshalData(); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return event, nil
}

func (svc *Service) ListEvents(ctx context.Context, opts ListEventsOptions) ([]*models.Event, error) {
	events := []*models.Event{}

	q := svc.db.
		NewSelect().
		Model(&events).
		Order("e.created_at ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Statuses != nil {
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			for _, s := range opts.Statuses {
				sq = sq.WhereOr("e.status = ?", s)
			}
			return sq
		})
	}
	if opts.ProcessIDToExclude != nil {
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("e.process_id IS NULL").
				WhereOr("e.process_id != ?", *opts.ProcessIDToExclude)
		})
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, event := range events {
		if err := event.UnmarshalData(); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return events, nil
}

func (svc *Service) UpdateEvent(ctx context.Context, event *models.Event, opts UpdateEventOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	event.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(event).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Event")
		}
		return errors.WithStack(err)
	}

	return nil
}
