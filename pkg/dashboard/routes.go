package dashboard

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes serves the member summary at /dashboard and the staff
// summary at /admin/dashboard. admin must already authenticate.
func RegisterRoutes(e *echo.Echo, admin *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	dashboardService := NewService(db)

	h := &handler{
		dashboardService: dashboardService,
	}

	e.GET("/dashboard", h.member, authMiddleware.Authenticate)
	admin.GET("/dashboard", h.admin, authMiddleware.RequirePermission(models.ResourceDashboard, models.OperationRead))

	return dashboardService
}
