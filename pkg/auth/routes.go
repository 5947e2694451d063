package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all auth routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string, userService UserCreator) *Service {
	authService := NewService(db, jwtSecret)

	h := &handler{
		authService: authService,
		userService: userService,
	}

	auth := e.Group("/auth")
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)
	auth.POST("/register", h.register)
	auth.GET("/me", h.me)

	return authService
}
