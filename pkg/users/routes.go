package users

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the admin user routes on an
// authenticated group. The role filter on the listing provides the admin,
// author and member views over the one users table.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	userService := NewService(db)

	h := &handler{
		userService: userService,
	}

	read := authMiddleware.RequirePermission(models.ResourceUsers, models.OperationRead)
	write := authMiddleware.RequirePermission(models.ResourceUsers, models.OperationWrite)

	g.GET("", h.list, read)
	g.GET("/:id", h.retrieve, read)
	g.POST("", h.create, write)
	g.PATCH("/:id", h.update, write)
	g.DELETE("/:id", h.deactivate, write)

	return userService
}
