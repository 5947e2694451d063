package shelves

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pagemark/pagemark/pkg/binder"
	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShelvesTestContext(t *testing.T, method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	var req *http.Request
	if payload == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestHandlerSet(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{service: NewService(db)}
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	book := createTestBook(ctx, t, db, "b1")

	c, rr := newShelvesTestContext(t, http.MethodPost, "/shelves/set",
		`{"book_id":`+strconv.Itoa(book.ID)+`,"shelf":"queue"}`)
	c.Set("user_id", user.ID)

	err := h.set(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	record := &models.ShelfRecord{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), record))
	assert.Equal(t, models.ShelfQueue, record.Shelf)
	require.NotNil(t, record.QueuePosition)
	assert.Equal(t, 1, *record.QueuePosition)
}

func TestHandlerSet_InvalidShelf(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	h := &handler{service: NewService(db)}
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	book := createTestBook(ctx, t, db, "b1")

	c, _ := newShelvesTestContext(t, http.MethodPost, "/shelves/set",
		`{"book_id":`+strconv.Itoa(book.ID)+`,"shelf":"wishlist"}`)
	c.Set("user_id", user.ID)

	err := h.set(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusUnprocessableEntity, codeErr.HTTPCode)
}

func TestHandlerReorder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{service: svc}
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	ids := seedQueue(ctx, t, svc, db, user.ID, "b1", "b2", "b3")

	body, err := json.Marshal(map[string][]int{"book_ids": {ids[2], ids[0], ids[1]}})
	require.NoError(t, err)

	c, rr := newShelvesTestContext(t, http.MethodPost, "/shelves/queue/reorder", string(body))
	c.Set("user_id", user.ID)

	err = h.reorder(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	positions := queuePositions(ctx, t, db, user.ID)
	assert.Equal(t, map[int]int{ids[2]: 1, ids[0]: 2, ids[1]: 3}, positions)
}

func TestHandlerReorder_Stale(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{service: svc}
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	ids := seedQueue(ctx, t, svc, db, user.ID, "b1", "b2")
	require.NoError(t, svc.Remove(ctx, user.ID, ids[0]))

	body, err := json.Marshal(map[string][]int{"book_ids": {ids[1], ids[0]}})
	require.NoError(t, err)

	c, _ := newShelvesTestContext(t, http.MethodPost, "/shelves/queue/reorder", string(body))
	c.Set("user_id", user.ID)

	err = h.reorder(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "invalid_reorder", codeErr.Code)
	assert.Equal(t, http.StatusConflict, codeErr.HTTPCode)
}

func TestHandlerSetComment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{service: svc}
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	book := createTestBook(ctx, t, db, "b1")
	_, err := svc.Transition(ctx, TransitionOptions{UserID: user.ID, BookID: book.ID, Shelf: models.ShelfCurrentlyReading})
	require.NoError(t, err)

	c, rr := newShelvesTestContext(t, http.MethodPatch,
		"/shelves/"+strconv.Itoa(book.ID)+"/comment", `{"comment":"so good"}`)
	c.SetPath("/shelves/:book_id/comment")
	c.SetParamNames("book_id")
	c.SetParamValues(strconv.Itoa(book.ID))
	c.Set("user_id", user.ID)

	err = h.setComment(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)

	record := &models.ShelfRecord{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), record))
	require.NotNil(t, record.Comment)
	assert.Equal(t, "so good", *record.Comment)
}

func TestHandlerRemove(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	h := &handler{service: svc}
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "reader")
	book := createTestBook(ctx, t, db, "b1")
	_, err := svc.Transition(ctx, TransitionOptions{UserID: user.ID, BookID: book.ID, Shelf: models.ShelfQueue})
	require.NoError(t, err)

	c, rr := newShelvesTestContext(t, http.MethodDelete, "/shelves/"+strconv.Itoa(book.ID), "")
	c.SetPath("/shelves/:book_id")
	c.SetParamNames("book_id")
	c.SetParamValues(strconv.Itoa(book.ID))
	c.Set("user_id", user.ID)

	err = h.remove(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
}
