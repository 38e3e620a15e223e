package categories

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers public reads on g and catalog management
// on admin, which must already authenticate.
func RegisterRoutesWithGroup(g, admin *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	categoryService := NewService(db)

	h := &handler{
		categoryService: categoryService,
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)

	read := authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationRead)
	write := authMiddleware.RequirePermission(models.ResourceCatalog, models.OperationWrite)
	admin.GET("", h.list, read)
	admin.GET("/:id", h.retrieve, read)
	admin.POST("", h.create, write)
	admin.PATCH("/:id", h.update, write)
	admin.DELETE("/:id", h.delete, write)

	return categoryService
}
