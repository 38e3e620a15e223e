package categories

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
)

type handler struct {
	categoryService *Service
}

type categoryWithCount struct {
	*models.Category
	BookCount int `json:"book_count"`
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListCategoriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	categories, total, err := h.categoryService.ListCategoriesWithTotal(ctx, ListCategoriesOptions{
		Search: params.Search,
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"categories": categories,
		"total":      total,
	}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Category")
	}

	category, err := h.categoryService.RetrieveCategory(ctx, RetrieveCategoryOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	bookCount, err := h.categoryService.BookCount(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, categoryWithCount{category, bookCount}))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateCategoryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	category := &models.Category{Name: params.Name}
	if err := h.categoryService.CreateCategory(ctx, category); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, category))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Category")
	}

	params := UpdateCategoryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	category, err := h.categoryService.RetrieveCategory(ctx, RetrieveCategoryOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateCategoryOptions{}
	if params.Name != nil && *params.Name != category.Name {
		if *params.Name == "" {
			return errcodes.ValidationError("Category name cannot be empty")
		}
		category.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}

	if err := h.categoryService.UpdateCategory(ctx, category, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, category))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Category")
	}

	if err := h.categoryService.DeleteCategory(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
