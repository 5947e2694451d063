package books

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all book routes on an authenticated group.
func RegisterRoutes(g *echo.Group, db *bun.DB) *Service {
	service := NewService(db)
	h := &handler{service: service}

	g.POST("/books", h.create)
	g.GET("/books", h.list)
	g.GET("/books/:id", h.retrieve)
	g.PATCH("/books/:id", h.update)
	g.DELETE("/books/:id", h.delete)

	return service
}
