package books

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
	Books []*models.Book `json:"books"`
	Total int            `json:"total"`
}

func bookIDParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Book")
	}
	return id, nil
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	payload := CreatePayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.service.Create(ctx, CreateParams{
		Title:    payload.Title,
		Author:   payload.Author,
		Pages:    payload.Pages,
		CoverURL: payload.CoverURL,
		Genres:   payload.Genres,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, book)
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := bookIDParam(c)
	if err != nil {
		return err
	}

	book, err := h.service.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, book)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListQueryParams{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.service.List(ctx, ListOptions{
		Search: params.Search,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listResponse{Books: books, Total: total})
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := bookIDParam(c)
	if err != nil {
		return err
	}

	payload := UpdatePayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.service.Update(ctx, id, UpdateParams{
		Title:    payload.Title,
		Author:   payload.Author,
		Pages:    payload.Pages,
		CoverURL: payload.CoverURL,
		Genres:   payload.Genres,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, book)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := bookIDParam(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
