package shelves

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	service *Service
}

type listResponse struct {
	Records []*models.ShelfRecord `json:"records"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func bookIDParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		return 0, errcodes.NotFound("Shelf record")
	}
	return id, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	params := ListQueryParams{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	records, err := h.service.ListRecords(ctx, ListRecordsOptions{
		UserID: userID,
		Shelf:  params.Shelf,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listResponse{Records: records})
}

func (h *handler) listQueue(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	records, err := h.service.ListQueue(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listResponse{Records: records})
}

func (h *handler) set(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	payload := SetShelfPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	record, err := h.service.Transition(ctx, TransitionOptions{
		UserID: userID,
		BookID: payload.BookID,
		Shelf:  payload.Shelf,
		Status: payload.Status,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

func (h *handler) remove(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	bookID, err := bookIDParam(c)
	if err != nil {
		return err
	}

	if err := h.service.Remove(ctx, userID, bookID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func (h *handler) reorder(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	payload := ReorderPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	if err := h.service.Reorder(ctx, userID, payload.BookIDs); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, okResponse{OK: true})
}

func (h *handler) setComment(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	bookID, err := bookIDParam(c)
	if err != nil {
		return err
	}

	payload := CommentPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	record, err := h.service.SetComment(ctx, userID, bookID, payload.Comment)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

func (h *handler) setMediaType(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	bookID, err := bookIDParam(c)
	if err != nil {
		return err
	}

	payload := MediaTypePayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	record, err := h.service.SetMediaType(ctx, userID, bookID, payload.MediaType)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}
