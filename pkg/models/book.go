package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// Book holds the bibliographic data consumed by shelves. It is read-only from
// the shelf engine's point of view; ingestion tooling owns the writes.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ExternalID   string    `bun:",nullzero" json:"external_id"`
	Title        string    `bun:",nullzero" json:"title"`
	Author       string    `bun:",nullzero" json:"author"`
	Pages        *int      `json:"pages,omitempty"`
	CoverURL     *string   `json:"cover_url,omitempty"`
	Genres       string    `bun:",nullzero" json:"-"`
	GenresParsed []string  `bun:"-" json:"genres"`
}

// UnmarshalGenres populates GenresParsed from the stored JSON column.
func (b *Book) UnmarshalGenres() error {
	if b.Genres == "" {
		b.GenresParsed = []string{}
		return nil
	}
	err := json.Unmarshal([]byte(b.Genres), &b.GenresParsed)
	return errors.WithStack(err)
}

// MarshalGenres serializes GenresParsed into the stored JSON column.
func (b *Book) MarshalGenres() error {
	data, err := json.Marshal(b.GenresParsed)
	if err != nil {
		return errors.WithStack(err)
	}
	b.Genres = string(data)
	return nil
}
