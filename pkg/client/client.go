package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Client is an HTTP client for the pagemark API. It holds the session cookie
// issued at login, so one client represents one signed-in user.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

type errorPayload struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		StatusCode int    `json:"status_code"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WithStack(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.WithStack(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithStack(err)
	}

	if resp.StatusCode >= 400 {
		payload := errorPayload{}
		if err := json.Unmarshal(data, &payload); err == nil && payload.Error.Code != "" {
			return &errcodes.Error{
				HTTPCode: payload.Error.StatusCode,
				Message:  payload.Error.Message,
				Code:     payload.Error.Code,
			}
		}
		return errors.Errorf("unexpected response status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates and stores the session cookie for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/login", loginPayload{Username: username, Password: password}, nil)
}

type setShelfPayload struct {
	BookID int     `json:"book_id"`
	Shelf  string  `json:"shelf"`
	Status *string `json:"status,omitempty"`
}

// SetShelf moves a book onto a shelf, returning the canonical record.
func (c *Client) SetShelf(ctx context.Context, bookID int, shelf string, status *string) (*models.ShelfRecord, error) {
	record := &models.ShelfRecord{}
	err := c.do(ctx, http.MethodPost, "/shelves/set", setShelfPayload{BookID: bookID, Shelf: shelf, Status: status}, record)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RemoveShelf deletes the shelf record for a book.
func (c *Client) RemoveShelf(ctx context.Context, bookID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/shelves/%d", bookID), nil, nil)
}

type reorderPayload struct {
	BookIDs []int `json:"book_ids"`
}

// ReorderQueue rewrites the queue to the supplied book order.
func (c *Client) ReorderQueue(ctx context.Context, bookIDs []int) error {
	return c.do(ctx, http.MethodPost, "/shelves/queue/reorder", reorderPayload{BookIDs: bookIDs}, nil)
}

type commentPayload struct {
	Comment *string `json:"comment"`
}

// SetComment sets or clears the note on a record.
func (c *Client) SetComment(ctx context.Context, bookID int, comment *string) (*models.ShelfRecord, error) {
	record := &models.ShelfRecord{}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/shelves/%d/comment", bookID), commentPayload{Comment: comment}, record)
	if err != nil {
		return nil, err
	}
	return record, nil
}

type mediaTypePayload struct {
	MediaType string `json:"media_type"`
}

// SetMediaType sets the record's media type.
func (c *Client) SetMediaType(ctx context.Context, bookID int, mediaType string) (*models.ShelfRecord, error) {
	record := &models.ShelfRecord{}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/shelves/%d/media_type", bookID), mediaTypePayload{MediaType: mediaType}, record)
	if err != nil {
		return nil, err
	}
	return record, nil
}

type favoriteResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

// ToggleFavorite flips the favorite flag and returns the new state.
func (c *Client) ToggleFavorite(ctx context.Context, bookID int) (bool, error) {
	resp := favoriteResponse{}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/books/%d/favorite", bookID), nil, &resp)
	if err != nil {
		return false, err
	}
	return resp.IsFavorite, nil
}

type recordsResponse struct {
	Records []*models.ShelfRecord `json:"records"`
}

// ListShelves fetches the user's shelf records, optionally filtered to one
// shelf.
func (c *Client) ListShelves(ctx context.Context, shelf *string) ([]*models.ShelfRecord, error) {
	path := "/shelves"
	if shelf != nil {
		path += "?shelf=" + *shelf
	}
	resp := recordsResponse{}
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// ListQueue fetches the user's queue in reading order.
func (c *Client) ListQueue(ctx context.Context) ([]*models.ShelfRecord, error) {
	resp := recordsResponse{}
	err := c.do(ctx, http.MethodGet, "/shelves/queue", nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Records, nil
}
