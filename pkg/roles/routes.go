package roles

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the role routes. Roles are part of user
// management, so they share the users permission.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	roleService := NewService(db)

	h := &handler{
		roleService: roleService,
	}

	read := authMiddleware.RequirePermission(models.ResourceUsers, models.OperationRead)
	g.GET("", h.list, read)
	g.GET("/:id", h.retrieve, read)

	return roleService
}
