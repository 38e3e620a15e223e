package loans

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the member's own loan list on g and
// circulation management on admin. Both groups must already authenticate.
func RegisterRoutesWithGroup(g, admin *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	loanService := NewService(db)

	h := &handler{
		loanService: loanService,
	}

	g.GET("", h.listOwn)

	admin.GET("", h.list, authMiddleware.RequirePermission(models.ResourceCirculation, models.OperationRead))
	admin.POST("", h.create, authMiddleware.RequirePermission(models.ResourceCirculation, models.OperationWrite))
	admin.POST("/:id/return", h.markReturned, authMiddleware.RequirePermission(models.ResourceCirculation, models.OperationWrite))

	return loanService
}
