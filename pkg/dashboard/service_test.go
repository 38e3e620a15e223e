package dashboard

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shishobooks/shelfkeep/pkg/migrations"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newUser(t *testing.T, db *bun.DB, email, roleName string) *models.User {
	t.Helper()
	ctx := context.Background()

	role := &models.Role{}
	require.NoError(t, db.NewSelect().Model(role).Where("name = ?", roleName).Scan(ctx))

	user := &models.User{
		Email:        email,
		FirstName:    "Test",
		Gender:       models.GenderOther,
		Avatar:       "images/avatars/default.png",
		PasswordHash: "x",
		RoleID:       role.ID,
		IsActive:     true,
	}
	_, err := db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)
	return user
}

func newBook(t *testing.T, db *bun.DB, title string) *models.Book {
	t.Helper()
	ctx := context.Background()

	category := &models.Category{Name: "General " + title}
	_, err := db.NewInsert().Model(category).Exec(ctx)
	require.NoError(t, err)

	book := &models.Book{Title: title, CategoryID: category.ID, PublicationDate: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), CopiesOwned: 1}
	_, err = db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)
	return book
}

func newLoan(t *testing.T, db *bun.DB, member *models.User, title string) *models.Loan {
	t.Helper()

	book := newBook(t, db, title)
	loan := &models.Loan{BookID: book.ID, MemberID: member.ID, LoanDate: models.Today()}
	_, err := db.NewInsert().Model(loan).Exec(context.Background())
	require.NoError(t, err)
	return loan
}

func addFine(t *testing.T, db *bun.DB, loan *models.Loan, amount, status string) {
	t.Helper()

	fine := &models.Fine{
		MemberID:   loan.MemberID,
		LoanID:     loan.ID,
		FineDate:   models.Today(),
		FineAmount: decimal.RequireFromString(amount),
		Status:     status,
	}
	_, err := db.NewInsert().Model(fine).Exec(context.Background())
	require.NoError(t, err)
}

func TestMemberSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)
	alice := newUser(t, db, "alice@example.com", models.RoleMember)
	bob := newUser(t, db, "bob@example.com", models.RoleMember)

	dune := newLoan(t, db, alice, "Dune")
	newLoan(t, db, alice, "Emma")
	bobs := newLoan(t, db, bob, "Ulysses")
	addFine(t, db, dune, "10.25", models.FineStatusUnpaid)
	addFine(t, db, dune, "0.50", models.FineStatusUnpaid)
	addFine(t, db, dune, "7.00", models.FineStatusPaid)
	addFine(t, db, bobs, "3.00", models.FineStatusUnpaid)

	_, err := db.NewInsert().Model(&models.Reservation{
		BookID:          dune.BookID,
		MemberID:        alice.ID,
		ReservationDate: models.Today(),
		Status:          models.ReservationStatusPending,
	}).Exec(ctx)
	require.NoError(t, err)

	summary, err := svc.MemberSummary(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalBookLoans)
	assert.Equal(t, "10.75", summary.TotalFine.StringFixed(2))
	assert.Equal(t, 1, summary.BooksReserved)

	summary, err = svc.MemberSummary(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalBookLoans)
	assert.Equal(t, "3.00", summary.TotalFine.StringFixed(2))
	assert.Zero(t, summary.BooksReserved)
}

func TestAdminSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)
	newUser(t, db, "admin@example.com", models.RoleAdmin)
	newUser(t, db, "writer@example.com", models.RoleAuthor)
	member := newUser(t, db, "m1@example.com", models.RoleMember)
	newUser(t, db, "m2@example.com", models.RoleMember)
	newLoan(t, db, member, "Dune")
	newLoan(t, db, member, "Emma")

	summary, err := svc.AdminSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, &AdminSummary{
		AdminsCount:   1,
		AuthorsCount:  1,
		MembersCount:  2,
		CategoryCount: 2,
		BooksCount:    2,
	}, summary)
}

func TestMemberSummary_CountFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)
	alice := newUser(t, db, "alice@example.com", models.RoleMember)
	newLoan(t, db, alice, "Dune")

	_, err := db.ExecContext(ctx, "DROP TABLE reservation")
	require.NoError(t, err)

	summary, err := svc.MemberSummary(ctx, alice.ID)
	require.Error(t, err)
	assert.Nil(t, summary)
}
