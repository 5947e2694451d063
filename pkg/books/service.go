package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateParams are the fields for a new catalog entry.
type CreateParams struct {
	Title    string
	Author   string
	Pages    *int
	CoverURL *string
	Genres   []string
}

// Create adds a book to the catalog with a fresh external ID.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Book, error) {
	now := time.Now()
	book := &models.Book{
		CreatedAt:    now,
		UpdatedAt:    now,
		ExternalID:   uuid.NewString(),
		Title:        params.Title,
		Author:       params.Author,
		Pages:        params.Pages,
		CoverURL:     params.CoverURL,
		GenresParsed: params.Genres,
	}
	if book.GenresParsed == nil {
		book.GenresParsed = []string{}
	}
	if err := book.MarshalGenres(); err != nil {
		return nil, err
	}

	_, err := s.db.NewInsert().
		Model(book).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// Retrieve fetches a single book by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}
	err := s.db.NewSelect().
		Model(book).
		Where("b.id = ?", id).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, errcodes.NotFound("Book")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := book.UnmarshalGenres(); err != nil {
		return nil, err
	}
	return book, nil
}

// ListOptions filter and paginate the catalog listing.
type ListOptions struct {
	Search string
	Limit  int
	Offset int
}

// List returns a page of books plus the total count of matches.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.Book, int, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	books := []*models.Book{}
	q := s.db.NewSelect().
		Model(&books)
	if opts.Search != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("b.title LIKE ?", "%"+opts.Search+"%").
				WhereOr("b.author LIKE ?", "%"+opts.Search+"%")
		})
	}
	total, err := q.
		Order("b.title ASC", "b.id ASC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	for _, book := range books {
		if err := book.UnmarshalGenres(); err != nil {
			return nil, 0, err
		}
	}

	return books, total, nil
}

// UpdateParams are the optional fields Update can change.
type UpdateParams struct {
	Title    *string
	Author   *string
	Pages    *int
	CoverURL *string
	Genres   []string
}

// Update modifies a catalog entry in place.
func (s *Service) Update(ctx context.Context, id int, params UpdateParams) (*models.Book, error) {
	book, err := s.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if params.Title != nil {
		book.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Author != nil {
		book.Author = *params.Author
		columns = append(columns, "author")
	}
	if params.Pages != nil {
		book.Pages = params.Pages
		columns = append(columns, "pages")
	}
	if params.CoverURL != nil {
		book.CoverURL = params.CoverURL
		columns = append(columns, "cover_url")
	}
	if params.Genres != nil {
		book.GenresParsed = params.Genres
		if err := book.MarshalGenres(); err != nil {
			return nil, err
		}
		columns = append(columns, "genres")
	}

	if len(columns) == 0 {
		return book, nil
	}

	book.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err = s.db.NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// Delete removes a book from the catalog. Shelf records and favorites
// referencing it are removed by the schema's cascading foreign keys.
func (s *Service) Delete(ctx context.Context, id int) error {
	res, err := s.db.NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}
