package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Shelves a book can occupy for a user. Membership is exclusive: a book sits
// on exactly one shelf at a time, or on none (no record).
const (
	ShelfCurrentlyReading = "currently_reading"
	ShelfQueue            = "queue"
	ShelfHistory          = "history"
)

// Reading statuses. in_progress and almost_done only make sense while a book
// is on currently_reading; finished and unfinished are terminal annotations
// that live on history.
const (
	StatusInProgress = "in_progress"
	StatusAlmostDone = "almost_done"
	StatusFinished   = "finished"
	StatusUnfinished = "unfinished"
)

// Media types, free-standing and independent of shelf.
const (
	MediaTypeEReader      = "e_reader"
	MediaTypeAudioBook    = "audio_book"
	MediaTypePhysicalBook = "physical_book"
)

// CommentMaxLength is the longest personal note a record can carry.
const CommentMaxLength = 32

// ShelfRecord is the one row per (user, book) association. queue_position is
// defined only while shelf = queue; comment only while shelf =
// currently_reading.
type ShelfRecord struct {
	bun.BaseModel `bun:"table:shelf_records,alias:sr"`

	ID            int       `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UserID        int       `bun:",nullzero" json:"user_id"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	BookID        int       `bun:",nullzero" json:"book_id"`
	Book          *Book     `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	Shelf         string    `bun:",nullzero" json:"shelf"`
	Status        *string   `json:"status,omitempty"`
	MediaType     *string   `json:"media_type,omitempty"`
	Comment       *string   `json:"comment,omitempty"`
	QueuePosition *int      `json:"queue_position,omitempty"`
	AddedAt       time.Time `json:"added_at"`
}

// IsTerminalStatus reports whether the status ends a reading attempt and
// therefore forces the record onto the history shelf.
func IsTerminalStatus(status string) bool {
	return status == StatusFinished || status == StatusUnfinished
}

// ValidShelf reports whether the value is one of the three shelves.
func ValidShelf(shelf string) bool {
	switch shelf {
	case ShelfCurrentlyReading, ShelfQueue, ShelfHistory:
		return true
	}
	return false
}

// ValidStatus reports whether the value is a known reading status.
func ValidStatus(status string) bool {
	switch status {
	case StatusInProgress, StatusAlmostDone, StatusFinished, StatusUnfinished:
		return true
	}
	return false
}
