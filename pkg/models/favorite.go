package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Favorite is a lightweight (user, book) tag. It is deliberately independent
// of ShelfRecord: removing a book from every shelf keeps the favorite.
type Favorite struct {
	bun.BaseModel `bun:"table:favorites,alias:f"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    int       `bun:",nullzero" json:"user_id"`
	User      *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	BookID    int       `bun:",nullzero" json:"book_id"`
	Book      *Book     `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}
