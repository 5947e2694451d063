package favorites

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/models"
)

type handler struct {
	service *Service
}

type toggleResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

type listResponse struct {
	Favorites []*models.Favorite `json:"favorites"`
}

func (h *handler) toggle(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	isFavorite, err := h.service.Toggle(ctx, userID, bookID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toggleResponse{IsFavorite: isFavorite})
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	favorites, err := h.service.List(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listResponse{Favorites: favorites})
}
