package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	dashboardService *Service
}

func (h *handler) member(c echo.Context) error {
	ctx := c.Request().Context()
	memberID, _ := c.Get("user_id").(int)

	summary, err := h.dashboardService.MemberSummary(ctx, memberID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, summary))
}

func (h *handler) admin(c echo.Context) error {
	summary, err := h.dashboardService.AdminSummary(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, summary))
}

// MemberHandler serves the member summary for routes owned by other
// packages, such as the authenticated home page.
func (svc *Service) MemberHandler() echo.HandlerFunc {
	return (&handler{dashboardService: svc}).member
}
