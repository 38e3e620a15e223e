package loans

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveLoanOptions struct {
	ID       *int
	MemberID *int
}

type ListLoansOptions struct {
	MemberID *int
	BookID   *int
	Active   *bool
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

// CreateLoan checks a book out to a member. The loan date defaults to today.
func (svc *Service) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan.LoanDate.IsZero() {
		loan.LoanDate = models.Today()
	} else {
		loan.LoanDate = models.DateOf(loan.LoanDate)
	}
	loan.ReturnedDate = nil

	now := time.Now()
	loan.CreatedAt = now
	loan.UpdatedAt = now

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", loan.BookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.ValidationError("Book does not exist")
		}

		if err := checkMember(ctx, tx, loan.MemberID); err != nil {
			return err
		}

		_, err = tx.NewInsert().
			Model(loan).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// checkMember ensures the user is active and holds the member role.
func checkMember(ctx context.Context, db bun.IDB, userID int) error {
	exists, err := db.NewSelect().
		Model((*models.User)(nil)).
		Relation("Role").
		Where("u.id = ?", userID).
		Where("u.is_active = TRUE").
		Where("role.name = ?", models.RoleMember).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.ValidationError("User is not an active member")
	}
	return nil
}

func (svc *Service) RetrieveLoan(ctx context.Context, opts RetrieveLoanOptions) (*models.Loan, error) {
	loan := &models.Loan{}

	q := svc.db.
		NewSelect().
		Model(loan).
		Relation("Book")

	if opts.ID != nil {
		q = q.Where("l.id = ?", *opts.ID)
	}
	if opts.MemberID != nil {
		q = q.Where("l.member_id = ?", *opts.MemberID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Loan")
		}
		return nil, errors.WithStack(err)
	}

	return loan, nil
}

func (svc *Service) ListLoans(ctx context.Context, opts ListLoansOptions) ([]*models.Loan, error) {
	l, _, err := svc.listLoansWithTotal(ctx, opts)
	return l, errors.WithStack(err)
}

func (svc *Service) ListLoansWithTotal(ctx context.Context, opts ListLoansOptions) ([]*models.Loan, int, error) {
	opts.includeTotal = true
	return svc.listLoansWithTotal(ctx, opts)
}

func (svc *Service) listLoansWithTotal(ctx context.Context, opts ListLoansOptions) ([]*models.Loan, int, error) {
	loans := []*models.Loan{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&loans).
		Relation("Book").
		Order("l.loan_date DESC", "l.id DESC")

	if opts.MemberID != nil {
		q = q.Where("l.member_id = ?", *opts.MemberID)
	}
	if opts.BookID != nil {
		q = q.Where("l.book_id = ?", *opts.BookID)
	}
	if opts.Active != nil {
		if *opts.Active {
			q = q.Where("l.returned_date IS NULL")
		} else {
			q = q.Where("l.returned_date IS NOT NULL")
		}
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

	return loans, total, nil
}

// ReturnLoan closes an open loan. A zero returned date means today.
func (svc *Service) ReturnLoan(ctx context.Context, loanID int, returned time.Time) (*models.Loan, error) {
	loan, err := svc.RetrieveLoan(ctx, RetrieveLoanOptions{ID: &loanID})
	if err != nil {
		return nil, err
	}
	if loan.IsReturned() {
		return nil, errcodes.ValidationError("Loan has already been returned")
	}

	if returned.IsZero() {
		returned = models.Today()
	}
	returned = models.DateOf(returned)
	if returned.Before(loan.LoanDate) {
		return nil, errcodes.ValidationError("Return date cannot be before the loan date")
	}

	loan.ReturnedDate = &returned
	loan.UpdatedAt = time.Now()

	// The open-loan condition keeps two concurrent returns from both winning.
	res, err := svc.db.
		NewUpdate().
		Model(loan).
		Column("returned_date", "updated_at").
		WherePK().
		Where("returned_date IS NULL").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errcodes.ValidationError("Loan has already been returned")
	}

	return loan, nil
}

// CountForMember returns how many loans the member has ever taken out.
func (svc *Service) CountForMember(ctx context.Context, memberID int) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.Loan)(nil)).
		Where("member_id = ?", memberID).
		Count(ctx)
	return count, errors.WithStack(err)
}
