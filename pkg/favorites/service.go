package favorites

import (
	"context"
	"database/sql"
	"time"

	"github.com/pagemark/pagemark/pkg/errcodes"
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

// Toggle flips the favorite flag for a (user, book) pair and returns the new
// state. Favorites don't require the book to be on any shelf.
func (svc *Service) Toggle(ctx context.Context, userID, bookID int) (bool, error) {
	var isFavorite bool
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		res, err := tx.NewDelete().
			Model((*models.Favorite)(nil)).
			Where("user_id = ? AND book_id = ?", userID, bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		deleted, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if deleted > 0 {
			isFavorite = false
			return nil
		}

		favorite := &models.Favorite{
			CreatedAt: time.Now(),
			UserID:    userID,
			BookID:    bookID,
		}
		_, err = tx.NewInsert().
			Model(favorite).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		isFavorite = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return isFavorite, nil
}

// IsFavorite reports whether the user has favorited the book.
func (svc *Service) IsFavorite(ctx context.Context, userID, bookID int) (bool, error) {
	count, err := svc.db.NewSelect().
		Model((*models.Favorite)(nil)).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return count > 0, nil
}

// List returns a user's favorites with their books, newest first.
func (svc *Service) List(ctx context.Context, userID int) ([]*models.Favorite, error) {
	favorites := []*models.Favorite{}
	err := svc.db.NewSelect().
		Model(&favorites).
		Relation("Book").
		Where("f.user_id = ?", userID).
		Order("f.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, favorite := range favorites {
		if favorite.Book != nil {
			if err := favorite.Book.UnmarshalGenres(); err != nil {
				return nil, err
			}
		}
	}

	return favorites, nil
}
