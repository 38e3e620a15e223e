package loans

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
)

type handler struct {
	loanService *Service
}

// listOwn returns the loans of the signed-in member.
func (h *handler) listOwn(c echo.Context) error {
	ctx := c.Request().Context()
	memberID, _ := c.Get("user_id").(int)

	params := ListLoansQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	loans, total, err := h.loanService.ListLoansWithTotal(ctx, ListLoansOptions{
		MemberID: &memberID,
		Active:   params.Active,
		Limit:    &params.Limit,
		Offset:   &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"loans": loans,
		"total": total,
	}))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := AdminListLoansQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	loans, total, err := h.loanService.ListLoansWithTotal(ctx, ListLoansOptions{
		MemberID: params.MemberID,
		BookID:   params.BookID,
		Active:   params.Active,
		Limit:    &params.Limit,
		Offset:   &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"loans": loans,
		"total": total,
	}))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateLoanPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	loan := &models.Loan{
		BookID:   params.BookID,
		MemberID: params.MemberID,
	}
	if params.LoanDate != "" {
		d, err := models.ParseDate(params.LoanDate)
		if err != nil {
			return errcodes.ValidationError(`"loan_date" should be in the format of YYYY-MM-DD`)
		}
		loan.LoanDate = d
	}

	if err := h.loanService.CreateLoan(ctx, loan); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book checked out", logger.Data{
		"loan_id":   loan.ID,
		"book_id":   loan.BookID,
		"member_id": loan.MemberID,
	})

	loan, err := h.loanService.RetrieveLoan(ctx, RetrieveLoanOptions{ID: &loan.ID})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, loan))
}

func (h *handler) markReturned(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Loan")
	}

	c.Set("disallow_empty_body", false)
	params := ReturnLoanPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	var returned time.Time
	if params.ReturnedDate != "" {
		returned, err = models.ParseDate(params.ReturnedDate)
		if err != nil {
			return errcodes.ValidationError(`"returned_date" should be in the format of YYYY-MM-DD`)
		}
	}

	loan, err := h.loanService.ReturnLoan(ctx, id, returned)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, loan))
}
