package fines

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/shopspring/decimal"
)

type handler struct {
	fineService *Service
}

func (h *handler) listOwn(c echo.Context) error {
	ctx := c.Request().Context()
	memberID, _ := c.Get("user_id").(int)

	params := ListFinesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fines, total, err := h.fineService.ListFinesWithTotal(ctx, ListFinesOptions{
		MemberID: &memberID,
		Status:   params.Status,
		Limit:    &params.Limit,
		Offset:   &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"fines": fines,
		"total": total,
	}))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := AdminListFinesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fines, total, err := h.fineService.ListFinesWithTotal(ctx, ListFinesOptions{
		MemberID: params.MemberID,
		LoanID:   params.LoanID,
		Status:   params.Status,
		Limit:    &params.Limit,
		Offset:   &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"fines": fines,
		"total": total,
	}))
}

func (h *handler) assess(c echo.Context) error {
	ctx := c.Request().Context()

	params := AssessFinePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// The money validator has already accepted the amount.
	amount := decimal.RequireFromString(params.FineAmount)

	fine := &models.Fine{
		LoanID:     params.LoanID,
		FineAmount: amount,
	}
	if params.FineDate != "" {
		d, err := models.ParseDate(params.FineDate)
		if err != nil {
			return errcodes.ValidationError(`"fine_date" should be in the format of YYYY-MM-DD`)
		}
		fine.FineDate = d
	}

	if err := h.fineService.AssessFine(ctx, fine); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("fine assessed", logger.Data{
		"fine_id":   fine.ID,
		"loan_id":   fine.LoanID,
		"member_id": fine.MemberID,
		"amount":    fine.FineAmount.StringFixed(2),
	})

	return errors.WithStack(c.JSON(http.StatusCreated, fine))
}
