package users

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all user routes. The group is expected to already
// carry authentication middleware.
func RegisterRoutes(g *echo.Group, db *bun.DB) *Service {
	service := NewService(db)
	h := &handler{service: service}

	g.PATCH("/users/me", h.updateMe)

	return service
}
