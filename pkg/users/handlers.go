package users

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
)

type handler struct {
	userService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Create(ctx, CreateUserOptions(params))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	user, err := h.userService.Retrieve(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListUsersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	users, total, err := h.userService.ListWithTotal(ctx, ListUsersOptions{
		Role:   params.Role,
		Search: params.Search,
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"users": users,
		"total": total,
	})
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	params := UpdateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Retrieve(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return err
	}

	currentUserID, _ := c.Get("user_id").(int)
	if currentUserID == id && params.IsActive != nil && !*params.IsActive {
		return errcodes.ValidationError("You cannot deactivate your own account")
	}

	opts := UpdateUserOptions{Columns: []string{}}

	if params.FirstName != nil && *params.FirstName != user.FirstName {
		user.FirstName = *params.FirstName
		opts.Columns = append(opts.Columns, "first_name")
	}
	if params.LastName != nil && *params.LastName != user.LastName {
		user.LastName = *params.LastName
		opts.Columns = append(opts.Columns, "last_name")
	}
	if params.Email != nil && *params.Email != user.Email {
		user.Email = *params.Email
		opts.Columns = append(opts.Columns, "email")
	}
	if params.Gender != nil && *params.Gender != user.Gender {
		user.Gender = *params.Gender
		opts.Columns = append(opts.Columns, "gender")
	}
	if params.IsActive != nil && *params.IsActive != user.IsActive {
		user.IsActive = *params.IsActive
		opts.Columns = append(opts.Columns, "is_active")
	}

	if err := h.userService.Update(ctx, user, opts); err != nil {
		return err
	}

	if params.Role != nil && (user.Role == nil || *params.Role != user.Role.Name) {
		if err := h.userService.AssignRole(ctx, user, *params.Role); err != nil {
			return err
		}
	}

	if params.Password != nil {
		if err := h.userService.SetPassword(ctx, id, *params.Password); err != nil {
			return err
		}
	}

	user, err = h.userService.Retrieve(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *handler) deactivate(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	// Prevent deactivating yourself
	currentUserID, _ := c.Get("user_id").(int)
	if currentUserID == id {
		return errcodes.ValidationError("You cannot deactivate your own account")
	}

	err = h.userService.Deactivate(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "User deactivated successfully"})
}
