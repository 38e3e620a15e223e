package reservations

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
)

type handler struct {
	reservationService *Service
}

func (h *handler) reserve(c echo.Context) error {
	ctx := c.Request().Context()
	memberID, _ := c.Get("user_id").(int)

	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	reservation, err := h.reservationService.Reserve(ctx, bookID, memberID)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book reserved", logger.Data{
		"reservation_id": reservation.ID,
		"book_id":        bookID,
		"member_id":      memberID,
	})

	return errors.WithStack(c.JSON(http.StatusCreated, reservation))
}

func (h *handler) listOwn(c echo.Context) error {
	ctx := c.Request().Context()
	memberID, _ := c.Get("user_id").(int)

	params := ListReservationsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	reservations, total, err := h.reservationService.ListReservationsWithTotal(ctx, ListReservationsOptions{
		MemberID: &memberID,
		Status:   params.Status,
		Limit:    &params.Limit,
		Offset:   &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"reservations": reservations,
		"total":        total,
	}))
}

func (h *handler) cancelOwn(c echo.Context) error {
	ctx := c.Request().Context()
	memberID, _ := c.Get("user_id").(int)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Reservation")
	}

	reservation, err := h.reservationService.Transition(ctx, id, &memberID, models.ReservationStatusCancelled)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, reservation))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := AdminListReservationsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	reservations, total, err := h.reservationService.ListReservationsWithTotal(ctx, ListReservationsOptions{
		MemberID: params.MemberID,
		BookID:   params.BookID,
		Status:   params.Status,
		Limit:    &params.Limit,
		Offset:   &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"reservations": reservations,
		"total":        total,
	}))
}

// transition returns a handler that moves a reservation to status on behalf
// of staff.
func (h *handler) transition(status string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return errcodes.NotFound("Reservation")
		}

		reservation, err := h.reservationService.Transition(ctx, id, nil, status)
		if err != nil {
			return errors.WithStack(err)
		}

		logger.FromContext(ctx).Info("reservation updated", logger.Data{
			"reservation_id": id,
			"status":         status,
		})

		return errors.WithStack(c.JSON(http.StatusOK, reservation))
	}
}
