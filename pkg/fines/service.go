package fines

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type RetrieveFineOptions struct {
	ID       *int
	MemberID *int
}

type ListFinesOptions struct {
	MemberID *int
	LoanID   *int
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

// AssessFine records an unpaid fine against a loan. The member is always the
// loan's borrower and the fine date defaults to today.
func (svc *Service) AssessFine(ctx context.Context, fine *models.Fine) error {
	if fine.FineAmount.IsNegative() {
		return errcodes.ValidationError("Fine amount cannot be negative")
	}
	if fine.FineDate.IsZero() {
		fine.FineDate = models.Today()
	} else {
		fine.FineDate = models.DateOf(fine.FineDate)
	}
	fine.Status = models.FineStatusUnpaid

	now := time.Now()
	fine.CreatedAt = now
	fine.UpdatedAt = now

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		loan := &models.Loan{}
		err := tx.NewSelect().
			Model(loan).
			Where("l.id = ?", fine.LoanID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.ValidationError("Loan does not exist")
			}
			return errors.WithStack(err)
		}
		fine.MemberID = loan.MemberID

		_, err = tx.NewInsert().
			Model(fine).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func (svc *Service) RetrieveFine(ctx context.Context, opts RetrieveFineOptions) (*models.Fine, error) {
	fine := &models.Fine{}

	q := svc.db.
		NewSelect().
		Model(fine).
		Relation("Loan").
		Relation("Loan.Book")

	if opts.ID != nil {
		q = q.Where("f.id = ?", *opts.ID)
	}
	if opts.MemberID != nil {
		q = q.Where("f.member_id = ?", *opts.MemberID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Fine")
		}
		return nil, errors.WithStack(err)
	}

	return fine, nil
}

func (svc *Service) ListFines(ctx context.Context, opts ListFinesOptions) ([]*models.Fine, error) {
	f, _, err := svc.listFinesWithTotal(ctx, opts)
	return f, errors.WithStack(err)
}

func (svc *Service) ListFinesWithTotal(ctx context.Context, opts ListFinesOptions) ([]*models.Fine, int, error) {
	opts.includeTotal = true
	return svc.listFinesWithTotal(ctx, opts)
}

func (svc *Service) listFinesWithTotal(ctx context.Context, opts ListFinesOptions) ([]*models.Fine, int, error) {
	fines := []*models.Fine{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&fines).
		Relation("Loan").
		Relation("Loan.Book").
		Order("f.fine_date DESC", "f.id DESC")

	if opts.MemberID != nil {
		q = q.Where("f.member_id = ?", *opts.MemberID)
	}
	if opts.LoanID != nil {
		q = q.Where("f.loan_id = ?", *opts.LoanID)
	}
	if opts.Status != nil {
		q = q.Where("f.status = ?", *opts.Status)
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

	return fines, total, nil
}

// UnpaidTotal sums the member's unpaid fines exactly.
func (svc *Service) UnpaidTotal(ctx context.Context, memberID int) (decimal.Decimal, error) {
	// Amounts are summed here rather than in SQL, where the stored text would
	// be coerced to floating point.
	var amounts []string
	err := svc.db.
		NewSelect().
		Model((*models.Fine)(nil)).
		Column("fine_amount").
		Where("member_id = ?", memberID).
		Where("status = ?", models.FineStatusUnpaid).
		Scan(ctx, &amounts)
	if err != nil {
		return decimal.Zero, errors.WithStack(err)
	}

	total := decimal.Zero
	for _, a := range amounts {
		d, err := decimal.NewFromString(a)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "invalid fine amount %q", a)
		}
		total = total.Add(d)
	}
	return total, nil
}
