package reservations

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes wires the member-facing reservation routes onto e and staff
// management onto admin. The member routes authenticate themselves; admin
// must already authenticate.
func RegisterRoutes(e *echo.Echo, admin *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	reservationService := NewService(db)

	h := &handler{
		reservationService: reservationService,
	}

	e.POST("/reserve/:book_id", h.reserve, authMiddleware.Authenticate)
	e.GET("/reservations", h.listOwn, authMiddleware.Authenticate)
	e.POST("/reservations/:id/cancel", h.cancelOwn, authMiddleware.Authenticate)

	read := authMiddleware.RequirePermission(models.ResourceCirculation, models.OperationRead)
	write := authMiddleware.RequirePermission(models.ResourceCirculation, models.OperationWrite)
	admin.GET("", h.list, read)
	admin.POST("/:id/fulfil", h.transition(models.ReservationStatusFulfilled), write)
	admin.POST("/:id/cancel", h.transition(models.ReservationStatusCancelled), write)

	return reservationService
}
