package testutils

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/books"
	"github.com/shishobooks/shelfkeep/pkg/categories"
	"github.com/shishobooks/shelfkeep/pkg/fines"
	"github.com/shishobooks/shelfkeep/pkg/loans"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/shishobooks/shelfkeep/pkg/users"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type handler struct {
	db              *bun.DB
	userService     *users.Service
	categoryService *categories.Service
	bookService     *books.Service
	loanService     *loans.Service
	fineService     *fines.Service
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Email     string `json:"email" mod:"trim,lcase" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" default:"Test"`
	LastName  string `json:"last_name" default:"User"`
	Role      string `json:"role" default:"member" validate:"oneof=admin author member"`
}

type createUserResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// createUser creates an active test user with the requested role.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Create(ctx, users.CreateUserOptions{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Gender:    models.GenderOther,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return c.JSON(http.StatusCreated, createUserResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  req.Role,
	})
}

// createFineRequest seeds everything a payment flow needs in one call.
type createFineRequest struct {
	MemberID int    `json:"member_id" validate:"required,min=1"`
	Amount   string `json:"amount" validate:"required,money"`
	Title    string `json:"title" default:"Test Book"`
}

type createFineResponse struct {
	FineID int `json:"fine_id"`
	LoanID int `json:"loan_id"`
	BookID int `json:"book_id"`
}

// createFine creates a category, book, and loan for the member and assesses
// an unpaid fine against the loan.
// POST /test/fines.
func (h *handler) createFine(c echo.Context) error {
	ctx := c.Request().Context()

	var req createFineRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	category := &models.Category{Name: "Test " + time.Now().Format("150405.000000")}
	if err := h.categoryService.CreateCategory(ctx, category); err != nil {
		return errors.Wrap(err, "failed to create category")
	}

	book := &models.Book{
		Title:           req.Title,
		CategoryID:      category.ID,
		PublicationDate: models.Today(),
		CopiesOwned:     1,
	}
	if err := h.bookService.CreateBook(ctx, book, nil); err != nil {
		return errors.Wrap(err, "failed to create book")
	}

	loan := &models.Loan{BookID: book.ID, MemberID: req.MemberID}
	if err := h.loanService.CreateLoan(ctx, loan); err != nil {
		return errors.Wrap(err, "failed to create loan")
	}

	fine := &models.Fine{LoanID: loan.ID, FineAmount: decimal.RequireFromString(req.Amount)}
	if err := h.fineService.AssessFine(ctx, fine); err != nil {
		return errors.Wrap(err, "failed to assess fine")
	}

	return c.JSON(http.StatusCreated, createFineResponse{
		FineID: fine.ID,
		LoanID: loan.ID,
		BookID: book.ID,
	})
}

type deleteAllResponse struct {
	Deleted map[string]int `json:"deleted"`
}

// deleteAll empties every table except roles and permissions.
// DELETE /test/data.
func (h *handler) deleteAll(c echo.Context) error {
	ctx := c.Request().Context()

	// Children before parents for the foreign keys.
	tables := []interface{}{
		(*models.FinePayment)(nil),
		(*models.Fine)(nil),
		(*models.Reservation)(nil),
		(*models.Loan)(nil),
		(*models.BookAuthor)(nil),
		(*models.Book)(nil),
		(*models.Author)(nil),
		(*models.Category)(nil),
		(*models.User)(nil),
	}

	resp := deleteAllResponse{Deleted: map[string]int{}}
	for _, model := range tables {
		q := h.db.NewDelete().Model(model).Where("1=1")
		result, err := q.Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to delete %s", q.GetTableName())
		}
		deleted, _ := result.RowsAffected()
		resp.Deleted[q.GetTableName()] = int(deleted)
	}

	return c.JSON(http.StatusOK, resp)
}
