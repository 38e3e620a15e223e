package roles

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
)

type handler struct {
	roleService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	roles, err := h.roleService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"roles": roles,
		"total": len(roles),
	})
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Role")
	}

	role, err := h.roleService.Retrieve(ctx, RetrieveRoleOptions{ID: &id})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, role)
}
