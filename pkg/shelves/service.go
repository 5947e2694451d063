package shelves

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pagemark/pagemark/pkg/database"
	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/events"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// busyToConflict maps a retry-exhausted busy error from the driver to the
// typed conflict error callers are expected to handle by retrying.
func busyToConflict(err error) error {
	if err == nil {
		return nil
	}
	if database.IsBusyError(err) {
		return errcodes.Conflict("The shelf was modified concurrently. Please retry.")
	}
	return err
}

type TransitionOptions struct {
	UserID int
	BookID int
	Shelf  string
	Status *string
}

// Transition moves a book onto a shelf for a user, creating the record if it
// doesn't exist. A terminal status (finished/unfinished) forces the history
// shelf regardless of the requested one. Re-invoking with the target the
// record already has is a no-op and emits no event.
func (svc *Service) Transition(ctx context.Context, opts TransitionOptions) (*models.ShelfRecord, error) {
	shelf := opts.Shelf
	status := opts.Status

	if status != nil {
		if !models.ValidStatus(*status) {
			return nil, errcodes.InvalidTransition(fmt.Sprintf("Unknown status %q.", *status))
		}
		if models.IsTerminalStatus(*status) {
			// Finishing or abandoning a book is itself a move to history.
			shelf = models.ShelfHistory
		} else if shelf != models.ShelfCurrentlyReading {
			return nil, errcodes.InvalidTransition(fmt.Sprintf("Status %q is only valid while currently reading.", *status))
		}
	}
	if shelf == models.ShelfHistory && status == nil {
		return nil, errcodes.InvalidTransition("A terminal status (finished or unfinished) is required when moving to history.")
	}

	var record *models.ShelfRecord
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", opts.BookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		existing := &models.ShelfRecord{}
		err = tx.NewSelect().
			Model(existing).
			Where("sr.user_id = ? AND sr.book_id = ?", opts.UserID, opts.BookID).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return errors.WithStack(err)
		}
		found := err == nil
		now := time.Now()

		if !found {
			record, err = svc.createRecord(ctx, tx, opts.UserID, opts.BookID, shelf, status, now)
			return err
		}

		if existing.Shelf == shelf {
			record, err = svc.updateStatusInPlace(ctx, tx, existing, status, now)
			return err
		}

		record, err = svc.moveShelf(ctx, tx, existing, shelf, status, now)
		return err
	})
	if err != nil {
		return nil, busyToConflict(err)
	}

	return record, nil
}

// createRecord handles a transition for a (user, book) pair with no existing
// record.
func (svc *Service) createRecord(ctx context.Context, tx bun.Tx, userID, bookID int, shelf string, status *string, now time.Time) (*models.ShelfRecord, error) {
	record := &models.ShelfRecord{
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    userID,
		BookID:    bookID,
		Shelf:     shelf,
		AddedAt:   now,
	}

	switch shelf {
	case models.ShelfCurrentlyReading:
		st := models.StatusInProgress
		if status != nil {
			st = *status
		}
		record.Status = &st
	case models.ShelfQueue:
		pos, err := nextQueuePosition(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		record.QueuePosition = &pos
	case models.ShelfHistory:
		record.Status = status
	}

	_, err := tx.NewInsert().
		Model(record).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if record.Status != nil && *record.Status == models.StatusFinished {
		if err := emitBookFinished(ctx, tx, userID, bookID, now); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// updateStatusInPlace handles a transition whose target shelf matches the
// record's current shelf. Identical targets are a no-op; a status change
// (in_progress to almost_done, unfinished to finished) updates just that
// column.
func (svc *Service) updateStatusInPlace(ctx context.Context, tx bun.Tx, record *models.ShelfRecord, status *string, now time.Time) (*models.ShelfRecord, error) {
	if status == nil || (record.Status != nil && *record.Status == *status) {
		return record, nil
	}

	wasFinished := record.Status != nil && *record.Status == models.StatusFinished
	record.Status = status
	record.UpdatedAt = now

	_, err := tx.NewUpdate().
		Model(record).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !wasFinished && *status == models.StatusFinished {
		if err := emitBookFinished(ctx, tx, record.UserID, record.BookID, now); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// moveShelf handles a genuine shelf change, applying the side effects of the
// transition table.
func (svc *Service) moveShelf(ctx context.Context, tx bun.Tx, record *models.ShelfRecord, shelf string, status *string, now time.Time) (*models.ShelfRecord, error) {
	wasQueue := record.Shelf == models.ShelfQueue
	wasFinished := record.Status != nil && *record.Status == models.StatusFinished

	record.Shelf = shelf
	record.UpdatedAt = now
	// Comments are scoped to the active reading session.
	record.Comment = nil
	columns := []string{"shelf", "status", "comment", "queue_position", "updated_at"}

	switch shelf {
	case models.ShelfCurrentlyReading:
		st := models.StatusInProgress
		if status != nil {
			st = *status
		}
		record.Status = &st
		record.QueuePosition = nil
		// A fresh reading attempt re-stamps added_at.
		record.AddedAt = now
		columns = append(columns, "added_at")
	case models.ShelfQueue:
		record.Status = nil
		pos, err := nextQueuePosition(ctx, tx, record.UserID)
		if err != nil {
			return nil, err
		}
		record.QueuePosition = &pos
	case models.ShelfHistory:
		record.Status = status
		record.QueuePosition = nil
	}

	_, err := tx.NewUpdate().
		Model(record).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if wasQueue && shelf != models.ShelfQueue {
		if err := repackQueue(ctx, tx, record.UserID); err != nil {
			return nil, err
		}
	}

	if record.Status != nil && *record.Status == models.StatusFinished && !wasFinished {
		if err := emitBookFinished(ctx, tx, record.UserID, record.BookID, now); err != nil {
			return nil, err
		}
	}

	return record, nil
}

func emitBookFinished(ctx context.Context, tx bun.Tx, userID, bookID int, now time.Time) error {
	event := &models.Event{
		UserID: userID,
		BookID: bookID,
		Type:   models.EventTypeBookFinished,
		DataParsed: &models.BookFinishedData{
			UserID:    userID,
			Event:     models.EventTypeBookFinished,
			BookID:    bookID,
			Timestamp: now,
		},
	}
	return events.CreateEventTx(ctx, tx, event)
}

// Remove deletes the shelf record entirely. Removing from the queue re-packs
// the remaining positions. Favorites are untouched.
func (svc *Service) Remove(ctx context.Context, userID, bookID int) error {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		existing := &models.ShelfRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("sr.user_id = ? AND sr.book_id = ?", userID, bookID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Shelf record")
			}
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.ShelfRecord)(nil)).
			Where("id = ?", existing.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if existing.Shelf == models.ShelfQueue {
			return repackQueue(ctx, tx, userID)
		}
		return nil
	})
	return busyToConflict(err)
}

// SetComment sets or clears the personal note on a record. Only valid while
// the book is on currently_reading.
func (svc *Service) SetComment(ctx context.Context, userID, bookID int, comment *string) (*models.ShelfRecord, error) {
	if comment != nil && len([]rune(*comment)) > models.CommentMaxLength {
		return nil, errcodes.ValidationError(fmt.Sprintf("Comment must be at most %d characters.", models.CommentMaxLength))
	}

	record, err := svc.RetrieveRecord(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if record.Shelf != models.ShelfCurrentlyReading {
		return nil, errcodes.InvalidTransition("Comments can only be set while currently reading.")
	}

	record.Comment = comment
	record.UpdatedAt = time.Now()

	_, err = svc.db.NewUpdate().
		Model(record).
		Column("comment", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, busyToConflict(errors.WithStack(err))
	}

	return record, nil
}

// SetMediaType sets the record's media type. Valid on any shelf.
func (svc *Service) SetMediaType(ctx context.Context, userID, bookID int, mediaType string) (*models.ShelfRecord, error) {
	record, err := svc.RetrieveRecord(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	record.MediaType = &mediaType
	record.UpdatedAt = time.Now()

	_, err = svc.db.NewUpdate().
		Model(record).
		Column("media_type", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, busyToConflict(errors.WithStack(err))
	}

	return record, nil
}

// RetrieveRecord fetches the shelf record for a (user, book) pair.
func (svc *Service) RetrieveRecord(ctx context.Context, userID, bookID int) (*models.ShelfRecord, error) {
	record := &models.ShelfRecord{}
	err := svc.db.NewSelect().
		Model(record).
		Where("sr.user_id = ? AND sr.book_id = ?", userID, bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Shelf record")
		}
		return nil, errors.WithStack(err)
	}
	return record, nil
}

type ListRecordsOptions struct {
	UserID int
	Shelf  *string
}

// ListRecords returns a user's shelf records with their books. Queue records
// come back in queue order; the rest newest-first.
func (svc *Service) ListRecords(ctx context.Context, opts ListRecordsOptions) ([]*models.ShelfRecord, error) {
	records := []*models.ShelfRecord{}

	q := svc.db.NewSelect().
		Model(&records).
		Relation("Book").
		Where("sr.user_id = ?", opts.UserID)

	if opts.Shelf != nil {
		q = q.Where("sr.shelf = ?", *opts.Shelf)
	}

	err := q.
		Order("sr.queue_position ASC NULLS LAST", "sr.added_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, record := range records {
		if record.Book != nil {
			if err := record.Book.UnmarshalGenres(); err != nil {
				return nil, err
			}
		}
	}

	return records, nil
}

// ListQueue returns the user's queue in reading order.
func (svc *Service) ListQueue(ctx context.Context, userID int) ([]*models.ShelfRecord, error) {
	shelf := models.ShelfQueue
	return svc.ListRecords(ctx, ListRecordsOptions{UserID: userID, Shelf: &shelf})
}
