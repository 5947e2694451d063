package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	EventTypeBookFinished = "book_finished"
)

const (
	EventStatusPending   = "pending"
	EventStatusDelivered = "delivered"
	EventStatusFailed    = "failed"
)

// Event is an outbox row. It is inserted in the same transaction as the shelf
// transition that produced it, so a genuine transition emits exactly one row
// and an idempotent no-op emits none. Delivery to the goal tracker is handled
// asynchronously by the notifier.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID         int         `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	UserID     int         `bun:",nullzero" json:"user_id"`
	BookID     int         `bun:",nullzero" json:"book_id"`
	Type       string      `bun:",nullzero" json:"type"`
	Status     string      `bun:",nullzero" json:"status"`
	Data       string      `bun:",nullzero" json:"-"`
	DataParsed interface{} `bun:"-" json:"data"`
	Attempts   int         `json:"attempts"`
	ProcessID  *string     `json:"process_id,omitempty"`
}

// BookFinishedData is the payload delivered to the goal tracker when a user
// finishes a book.
type BookFinishedData struct {
	UserID    int       `json:"user_id"`
	Event     string    `json:"event"`
	BookID    int       `json:"book_id"`
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalData parses the stored JSON payload into DataParsed.
func (e *Event) UnmarshalData() error {
	switch e.Type {
	case EventTypeBookFinished:
		e.DataParsed = &BookFinishedData{}
	default:
		return errors.Errorf("unknown event type: %s", e.Type)
	}

	err := json.Unmarshal([]byte(e.Data), e.DataParsed)
	return errors.WithStack(err)
}

// MarshalData serializes DataParsed into the stored JSON column.
func (e *Event) MarshalData() error {
	data, err := json.Marshal(e.DataParsed)
	if err != nil {
		return errors.WithStack(err)
	}
	e.Data = string(data)
	return nil
}
