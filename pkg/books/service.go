package books

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/htmlutil"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID *int
}

// ListBooksOptions filters the catalog. Search matches the title or any
// author's name. Publication bounds are inclusive.
type ListBooksOptions struct {
	Search        *string
	CategoryID    *int
	AuthorID      *int
	PublishedFrom *time.Time
	PublishedTo   *time.Time
	Limit         *int
	Offset        *int

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
	// AuthorIDs replaces the book's authors when non-nil.
	AuthorIDs *[]int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBook inserts the book and links it to authorIDs in one transaction.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book, authorIDs []int) error {
	sanitize(book)
	book.PublicationDate = models.DateOf(book.PublicationDate)

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkCategory(ctx, tx, book.CategoryID); err != nil {
			return err
		}

		_, err := tx.NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return setAuthors(ctx, tx, book.ID, authorIDs)
	})
	if err != nil {
		return err
	}
	return nil
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Category").
		Relation("Authors", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("ba.id ASC")
		}).
		Relation("Authors.Author")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Category").
		Relation("Authors", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("ba.id ASC")
		}).
		Relation("Authors.Author").
		Order("b.title ASC", "b.id ASC")

	if opts.Search != nil && *opts.Search != "" {
		search := "%" + strings.ToLower(*opts.Search) + "%"
		authorMatch := svc.db.NewSelect().
			TableExpr("book_author AS sba").
			Column("sba.book_id").
			Join("JOIN author AS sa ON sa.id = sba.author_id").
			Where("LOWER(sa.first_name || ' ' || sa.last_name) LIKE ?", search)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(b.title) LIKE ?", search).
				WhereOr("b.id IN (?)", authorMatch)
		})
	}
	if opts.CategoryID != nil {
		q = q.Where("b.category_id = ?", *opts.CategoryID)
	}
	if opts.AuthorID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_author WHERE author_id = ?)", *opts.AuthorID)
	}
	if opts.PublishedFrom != nil {
		q = q.Where("b.publication_date >= ?", models.DateOf(*opts.PublishedFrom))
	}
	if opts.PublishedTo != nil {
		q = q.Where("b.publication_date <= ?", models.DateOf(*opts.PublishedTo))
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

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 && opts.AuthorIDs == nil {
		return nil
	}

	sanitize(book)
	book.PublicationDate = models.DateOf(book.PublicationDate)
	book.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, col := range opts.Columns {
			if col == "category_id" {
				if err := checkCategory(ctx, tx, book.CategoryID); err != nil {
					return err
				}
			}
		}

		res, err := tx.NewUpdate().
			Model(book).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book")
		}

		if opts.AuthorIDs != nil {
			_, err := tx.NewDelete().
				Model((*models.BookAuthor)(nil)).
				Where("book_id = ?", book.ID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			return setAuthors(ctx, tx, book.ID, *opts.AuthorIDs)
		}
		return nil
	})
}

// DeleteBook removes a book that has never been lent or reserved. Author
// associations go with it.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{(*models.Loan)(nil), (*models.Reservation)(nil)} {
			exists, err := tx.NewSelect().Model(model).Where("book_id = ?", bookID).Exists(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			if exists {
				return errcodes.ValidationError("Book has circulation history and cannot be deleted")
			}
		}

		res, err := tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book")
		}
		return nil
	})
}

// Count returns the number of books in the catalog.
func (svc *Service) Count(ctx context.Context) (int, error) {
	count, err := svc.db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	return count, errors.WithStack(err)
}

func sanitize(book *models.Book) {
	book.Title = strings.TrimSpace(book.Title)
	if book.Description != nil {
		text := htmlutil.StripTags(*book.Description)
		if text == "" {
			book.Description = nil
		} else {
			book.Description = &text
		}
	}
}

func checkCategory(ctx context.Context, tx bun.Tx, categoryID int) error {
	exists, err := tx.NewSelect().
		Model((*models.Category)(nil)).
		Where("id = ?", categoryID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.ValidationError("Category does not exist")
	}
	return nil
}

// setAuthors links the book to each distinct author id, keeping the given
// order.
func setAuthors(ctx context.Context, tx bun.Tx, bookID int, authorIDs []int) error {
	seen := map[int]bool{}
	links := make([]*models.BookAuthor, 0, len(authorIDs))
	for _, id := range authorIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, &models.BookAuthor{BookID: bookID, AuthorID: id})
	}
	if len(links) == 0 {
		return nil
	}

	count, err := tx.NewSelect().
		Model((*models.Author)(nil)).
		Where("id IN (?)", bun.In(keys(seen))).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if count != len(links) {
		return errcodes.ValidationError("One or more authors do not exist")
	}

	_, err = tx.NewInsert().Model(&links).Exec(ctx)
	return errors.WithStack(err)
}

func keys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
