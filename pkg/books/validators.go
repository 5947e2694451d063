package books

// CreatePayload represents the body for creating a book.
type CreatePayload struct {
	Title    string   `json:"title" validate:"required,max=500"`
	Author   string   `json:"author" validate:"required,max=500"`
	Pages    *int     `json:"pages" validate:"omitempty,min=1"`
	CoverURL *string  `json:"cover_url" validate:"omitempty,url"`
	Genres   []string `json:"genres" validate:"omitempty,dive,max=100"`
}

// UpdatePayload represents the body for updating a book.
type UpdatePayload struct {
	Title    *string  `json:"title" validate:"omitempty,max=500"`
	Author   *string  `json:"author" validate:"omitempty,max=500"`
	Pages    *int     `json:"pages" validate:"omitempty,min=1"`
	CoverURL *string  `json:"cover_url" validate:"omitempty,url"`
	Genres   []string `json:"genres" validate:"omitempty,dive,max=100"`
}

// ListQueryParams represents the query string for listing books.
type ListQueryParams struct {
	Search string `query:"search"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}
