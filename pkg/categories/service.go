package categories

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/database"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

var errCategoryExists = errcodes.ValidationError("Category already exists")

type RetrieveCategoryOptions struct {
	ID   *int
	Name *string
}

type ListCategoriesOptions struct {
	Search *string
	Limit  *int
	Offset *int

	includeTotal bool
}

type UpdateCategoryOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateCategory(ctx context.Context, category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return errcodes.ValidationError("Category name cannot be empty")
	}

	now := time.Now()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = category.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(category).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errCategoryExists
		}
		return errors.WithStack(err)
	}
	return nil
}

func (svc *Service) RetrieveCategory(ctx context.Context, opts RetrieveCategoryOptions) (*models.Category, error) {
	category := &models.Category{}

	q := svc.db.
		NewSelect().
		Model(category)

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("c.name = ? COLLATE NOCASE", strings.TrimSpace(*opts.Name))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Category")
		}
		return nil, errors.WithStack(err)
	}

	return category, nil
}

func (svc *Service) ListCategories(ctx context.Context, opts ListCategoriesOptions) ([]*models.Category, error) {
	c, _, err := svc.listCategoriesWithTotal(ctx, opts)
	return c, errors.WithStack(err)
}

func (svc *Service) ListCategoriesWithTotal(ctx context.Context, opts ListCategoriesOptions) ([]*models.Category, int, error) {
	opts.includeTotal = true
	return svc.listCategoriesWithTotal(ctx, opts)
}

func (svc *Service) listCategoriesWithTotal(ctx context.Context, opts ListCategoriesOptions) ([]*models.Category, int, error) {
	categories := []*models.Category{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&categories).
		Order("c.name ASC")

	if opts.Search != nil && *opts.Search != "" {
		search := "%" + strings.ToLower(*opts.Search) + "%"
		q = q.Where("LOWER(c.name) LIKE ?", search)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return categories, total, nil
}

func (svc *Service) UpdateCategory(ctx context.Context, category *models.Category, opts UpdateCategoryOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	category.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(category).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errCategoryExists
		}
		if database.IsCheckViolation(err) {
			return errcodes.ValidationError("Category name cannot be empty")
		}
		return errors.WithStack(err)
	}
	return nil
}

// DeleteCategory removes a category that no book belongs to.
func (svc *Service) DeleteCategory(ctx context.Context, categoryID int) error {
	count, err := svc.BookCount(ctx, categoryID)
	if err != nil {
		return err
	}
	if count > 0 {
		return errcodes.ValidationError("Category still has books")
	}

	res, err := svc.db.
		NewDelete().
		Model((*models.Category)(nil)).
		Where("id = ?", categoryID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Category")
	}
	return nil
}

func (svc *Service) BookCount(ctx context.Context, categoryID int) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("category_id = ?", categoryID).
		Count(ctx)
	return count, errors.WithStack(err)
}

// Count returns the number of categories.
func (svc *Service) Count(ctx context.Context) (int, error) {
	count, err := svc.db.NewSelect().Model((*models.Category)(nil)).Count(ctx)
	return count, errors.WithStack(err)
}
