package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pagemark/pagemark/pkg/auth"
	"github.com/pagemark/pagemark/pkg/binder"
	"github.com/pagemark/pagemark/pkg/books"
	"github.com/pagemark/pagemark/pkg/config"
	"github.com/pagemark/pagemark/pkg/errcodes"
	"github.com/pagemark/pagemark/pkg/favorites"
	"github.com/pagemark/pagemark/pkg/shelves"
	"github.com/pagemark/pagemark/pkg/users"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	userService := users.NewService(db)

	// Register auth routes and get the auth service
	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret, userService)
	authMiddleware := auth.NewMiddleware(authService)

	// Everything else requires a signed-in user.
	api := e.Group("")
	api.Use(authMiddleware.Authenticate)

	users.RegisterRoutes(api, db)
	books.RegisterRoutes(api, db)
	shelves.RegisterRoutes(api, db)
	favorites.RegisterRoutes(api, db)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
