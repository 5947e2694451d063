package shelves

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all shelf routes on an authenticated group.
func RegisterRoutes(g *echo.Group, db *bun.DB) *Service {
	service := NewService(db)
	h := &handler{service: service}

	g.GET("/shelves", h.list)
	g.GET("/shelves/queue", h.listQueue)
	g.POST("/shelves/set", h.set)
	g.POST("/shelves/queue/reorder", h.reorder)
	g.DELETE("/shelves/:book_id", h.remove)
	g.PATCH("/shelves/:book_id/comment", h.setComment)
	g.PATCH("/shelves/:book_id/media_type", h.setMediaType)

	return service
}
