package users

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pagemark/pagemark/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	service *Service
}

type userResponse struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
}

func buildUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

func (h *handler) updateMe(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Get("user_id").(int)

	payload := UpdateMePayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.service.Update(ctx, userID, UpdateParams{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, buildUserResponse(user))
}
