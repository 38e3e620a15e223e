package fines

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the member's own fine list on g and fine
// assessment on admin. Both groups must already authenticate. Payment routes
// live under the same prefix but are registered by the payments package.
func RegisterRoutesWithGroup(g, admin *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	fineService := NewService(db)

	h := &handler{
		fineService: fineService,
	}

	g.GET("", h.listOwn)

	admin.GET("", h.list, authMiddleware.RequirePermission(models.ResourceFines, models.OperationRead))
	admin.POST("", h.assess, authMiddleware.RequirePermission(models.ResourceFines, models.OperationWrite))

	return fineService
}
