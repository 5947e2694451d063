package favorites

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all favorite routes on an authenticated group.
func RegisterRoutes(g *echo.Group, db *bun.DB) *Service {
	service := NewService(db)
	h := &handler{service: service}

	g.GET("/favorites", h.list)
	g.POST("/books/:book_id/favorite", h.toggle)

	return service
}
