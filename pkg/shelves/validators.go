package shelves

// SetShelfPayload represents the body for moving a book onto a shelf.
type SetShelfPayload struct {
	BookID int     `json:"book_id" validate:"required"`
	Shelf  string  `json:"shelf" validate:"required,shelf"`
	Status *string `json:"status" validate:"omitempty,reading_status"`
}

// ReorderPayload represents the body for rewriting the queue order.
type ReorderPayload struct {
	BookIDs []int `json:"book_ids" validate:"required"`
}

// CommentPayload represents the body for setting or clearing the note on a
// record. A null comment clears it.
type CommentPayload struct {
	Comment *string `json:"comment" validate:"omitempty,max=32"`
}

// MediaTypePayload represents the body for setting a record's media type.
type MediaTypePayload struct {
	MediaType string `json:"media_type" validate:"required,oneof=e_reader audio_book physical_book"`
}

// ListQueryParams represents the query string for listing shelf records.
type ListQueryParams struct {
	Shelf *string `query:"shelf" validate:"omitempty,shelf"`
}
