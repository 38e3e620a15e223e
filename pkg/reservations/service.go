package reservations

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveReservationOptions struct {
	ID       *int
	MemberID *int
}

type ListReservationsOptions struct {
	MemberID *int
	BookID   *int
	Status   *string
	Limit    *int
	Offset   *int

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Reserve records a pending hold on a book for the member, dated today.
func (svc *Service) Reserve(ctx context.Context, bookID, memberID int) (*models.Reservation, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("id = ?", bookID).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !exists {
		return nil, errcodes.NotFound("Book")
	}

	now := time.Now()
	reservation := &models.Reservation{
		CreatedAt:       now,
		UpdatedAt:       now,
		BookID:          bookID,
		MemberID:        memberID,
		ReservationDate: models.DateOf(now),
		Status:          models.ReservationStatusPending,
	}

	_, err = svc.db.
		NewInsert().
		Model(reservation).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return reservation, nil
}

func (svc *Service) RetrieveReservation(ctx context.Context, opts RetrieveReservationOptions) (*models.Reservation, error) {
	reservation := &models.Reservation{}

	q := svc.db.
		NewSelect().
		Model(reservation).
		Relation("Book")

	if opts.ID != nil {
		q = q.Where("rv.id = ?", *opts.ID)
	}
	if opts.MemberID != nil {
		q = q.Where("rv.member_id = ?", *opts.MemberID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Reservation")
		}
		return nil, errors.WithStack(err)
	}

	return reservation, nil
}

func (svc *Service) ListReservations(ctx context.Context, opts ListReservationsOptions) ([]*models.Reservation, error) {
	r, _, err := svc.listReservationsWithTotal(ctx, opts)
	return r, errors.WithStack(err)
}

func (svc *Service) ListReservationsWithTotal(ctx context.Context, opts ListReservationsOptions) ([]*models.Reservation, int, error) {
	opts.includeTotal = true
	return svc.listReservationsWithTotal(ctx, opts)
}

func (svc *Service) listReservationsWithTotal(ctx context.Context, opts ListReservationsOptions) ([]*models.Reservation, int, error) {
	reservations := []*models.Reservation{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&reservations).
		Relation("Book").
		Order("rv.reservation_date DESC", "rv.id DESC")

	if opts.MemberID != nil {
		q = q.Where("rv.member_id = ?", *opts.MemberID)
	}
	if opts.BookID != nil {
		q = q.Where("rv.book_id = ?", *opts.BookID)
	}
	if opts.Status != nil {
		q = q.Where("rv.status = ?", *opts.Status)
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

	return reservations, total, nil
}

// Transition moves a pending reservation to status. When memberID is set the
// reservation must belong to that member.
func (svc *Service) Transition(ctx context.Context, reservationID int, memberID *int, status string) (*models.Reservation, error) {
	if status != models.ReservationStatusFulfilled && status != models.ReservationStatusCancelled {
		return nil, errcodes.ValidationError("Invalid reservation status")
	}

	reservation, err := svc.RetrieveReservation(ctx, RetrieveReservationOptions{ID: &reservationID, MemberID: memberID})
	if err != nil {
		return nil, err
	}
	if reservation.Status != models.ReservationStatusPending {
		return nil, errcodes.ValidationError("Reservation is already " + reservation.Status)
	}

	reservation.Status = status
	reservation.UpdatedAt = time.Now()

	res, err := svc.db.
		NewUpdate().
		Model(reservation).
		Column("status", "updated_at").
		WherePK().
		Where("status = ?", models.ReservationStatusPending).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errcodes.ValidationError("Reservation is no longer pending")
	}

	return reservation, nil
}

// CountForMember returns how many reservations the member has made.
func (svc *Service) CountForMember(ctx context.Context, memberID int) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.Reservation)(nil)).
		Where("member_id = ?", memberID).
		Count(ctx)
	return count, errors.WithStack(err)
}
