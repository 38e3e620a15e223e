package dashboard

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/books"
	"github.com/shishobooks/shelfkeep/pkg/categories"
	"github.com/shishobooks/shelfkeep/pkg/fines"
	"github.com/shishobooks/shelfkeep/pkg/loans"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/shishobooks/shelfkeep/pkg/reservations"
	"github.com/shishobooks/shelfkeep/pkg/users"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

type MemberSummary struct {
	TotalBookLoans int             `json:"total_book_loans"`
	TotalFine      decimal.Decimal `json:"total_fine"`
	BooksReserved  int             `json:"books_reserved"`
}

type AdminSummary struct {
	AdminsCount   int `json:"admins_count"`
	AuthorsCount  int `json:"authors_count"`
	MembersCount  int `json:"members_count"`
	CategoryCount int `json:"category_count"`
	BooksCount    int `json:"books_count"`
}

type Service struct {
	loanService        *loans.Service
	reservationService *reservations.Service
	fineService        *fines.Service
	userService        *users.Service
	categoryService    *categories.Service
	bookService        *books.Service
}

func NewService(db *bun.DB) *Service {
	return &Service{
		loanService:        loans.NewService(db),
		reservationService: reservations.NewService(db),
		fineService:        fines.NewService(db),
		userService:        users.NewService(db),
		categoryService:    categories.NewService(db),
		bookService:        books.NewService(db),
	}
}

// MemberSummary aggregates the member's own circulation records. The fine
// total only includes fines that are still unpaid.
func (svc *Service) MemberSummary(ctx context.Context, memberID int) (*MemberSummary, error) {
	summary := &MemberSummary{}

	// The counts are independent reads. They still queue on the single pooled
	// connection, so the group is there for first-error cancellation and to
	// keep the queries issued together.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary.TotalBookLoans, err = svc.loanService.CountForMember(ctx, memberID)
		return err
	})
	g.Go(func() (err error) {
		summary.TotalFine, err = svc.fineService.UnpaidTotal(ctx, memberID)
		return err
	})
	g.Go(func() (err error) {
		summary.BooksReserved, err = svc.reservationService.CountForMember(ctx, memberID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summary, nil
}

func (svc *Service) AdminSummary(ctx context.Context) (*AdminSummary, error) {
	var (
		byRole        map[string]int
		categoryCount int
		bookCount     int
	)

	// Same single-connection queueing as MemberSummary.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byRole, err = svc.userService.CountByRole(ctx)
		return errors.WithStack(err)
	})
	g.Go(func() (err error) {
		categoryCount, err = svc.categoryService.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		bookCount, err = svc.bookService.Count(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &AdminSummary{
		AdminsCount:   byRole[models.RoleAdmin],
		AuthorsCount:  byRole[models.RoleAuthor],
		MembersCount:  byRole[models.RoleMember],
		CategoryCount: categoryCount,
		BooksCount:    bookCount,
	}, nil
}
