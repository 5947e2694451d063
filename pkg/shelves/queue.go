package shelves

import (
	"context"
	"database/sql"

	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// nextQueuePosition returns the tail position for a user's queue.
func nextQueuePosition(ctx context.Context, idb bun.IDB, userID int) (int, error) {
	var maxPosition int
	err := idb.NewSelect().
		Model((*models.ShelfRecord)(nil)).
		ColumnExpr("COALESCE(MAX(queue_position), 0)").
		Where("user_id = ? AND shelf = ?", userID, models.ShelfQueue).
		Scan(ctx, &maxPosition)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return maxPosition + 1, nil
}

// repackQueue rewrites a user's queue positions to a contiguous 1..N sequence
// ordered by the current positions. Updates run in ascending order so the
// per-user unique index never sees a duplicate intermediate value.
func repackQueue(ctx context.Context, idb bun.IDB, userID int) error {
	var records []*models.ShelfRecord
	err := idb.NewSelect().
		Model(&records).
		Where("sr.user_id = ? AND sr.shelf = ?", userID, models.ShelfQueue).
		Order("sr.queue_position ASC").
		Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for i, record := range records {
		position := i + 1
		if record.QueuePosition != nil && *record.QueuePosition == position {
			continue
		}
		_, err := idb.NewUpdate().
			Model((*models.ShelfRecord)(nil)).
			Set("queue_position = ?", position).
			Where("id = ?", record.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

// Reorder atomically reassigns a user's queue positions to match the supplied
// book order. The supplied ids must be exactly the current queue membership;
// anything else is rejected outright so a stale client racing a concurrent
// add or remove can't corrupt positions.
func (svc *Service) Reorder(ctx context.Context, userID int, bookIDs []int) error {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var records []*models.ShelfRecord
		err := tx.NewSelect().
			Model(&records).
			Where("sr.user_id = ? AND sr.shelf = ?", userID, models.ShelfQueue).
			Order("sr.queue_position ASC").
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if len(bookIDs) != len(records) {
			return errcodes.InvalidReorder("The supplied book ids don't match the current queue.")
		}

		byBookID := make(map[int]*models.ShelfRecord, len(records))
		for _, record := range records {
			byBookID[record.BookID] = record
		}

		seen := make(map[int]bool, len(bookIDs))
		for _, bookID := range bookIDs {
			if seen[bookID] {
				return errcodes.InvalidReorder("The supplied book ids don't match the current queue.")
			}
			seen[bookID] = true
			if byBookID[bookID] == nil {
				return errcodes.InvalidReorder("The supplied book ids don't match the current queue.")
			}
		}

		// Negate existing positions first; assigning final positions one row
		// at a time would otherwise trip the per-user unique index.
		_, err = tx.NewUpdate().
			Model((*models.ShelfRecord)(nil)).
			Set("queue_position = -queue_position").
			Where("user_id = ? AND shelf = ?", userID, models.ShelfQueue).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		for i, bookID := range bookIDs {
			_, err := tx.NewUpdate().
				Model((*models.ShelfRecord)(nil)).
				Set("queue_position = ?", i+1).
				Where("id = ?", byBookID[bookID].ID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	})
	return busyToConflict(err)
}
