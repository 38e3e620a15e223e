package payments

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
)

type handler struct {
	paymentService *Service
}

func wantsHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

func (h *handler) initiate(c echo.Context) error {
	ctx := c.Request().Context()
	memberID, _ := c.Get("user_id").(int)

	fineID, err := strconv.Atoi(c.Param("fine_id"))
	if err != nil {
		return errcodes.NotFound("Fine")
	}

	checkout, err := h.paymentService.Initiate(ctx, fineID, memberID)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("payment initiated", logger.Data{
		"fine_id":  fineID,
		"order_id": checkout.OrderID,
	})

	if wantsHTML(c) {
		page, err := renderCheckout(checkout)
		if err != nil {
			return err
		}
		return errors.WithStack(c.HTML(http.StatusOK, page))
	}

	return errors.WithStack(c.JSON(http.StatusOK, checkout))
}

func (h *handler) complete(c echo.Context) error {
	ctx := c.Request().Context()
	memberID, _ := c.Get("user_id").(int)

	params := CompletePaymentPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	confirmation, err := h.paymentService.Complete(ctx, CompleteOptions{
		OrderID:   params.OrderID,
		PaymentID: params.PaymentID,
		Signature: params.Signature,
		FineID:    params.FineID,
		MemberID:  memberID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("fine paid", logger.Data{
		"fine_id":    params.FineID,
		"payment_id": params.PaymentID,
		"amount":     confirmation.Amount,
		"replayed":   confirmation.replayed,
	})

	return errors.WithStack(c.JSON(http.StatusOK, confirmation))
}

func (h *handler) success(c echo.Context) error {
	params := PaymentSuccessQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.Amount == "" {
		return errcodes.MissingParameter("amount")
	}

	return errors.WithStack(c.HTML(http.StatusOK, renderSuccess(params.Amount)))
}
