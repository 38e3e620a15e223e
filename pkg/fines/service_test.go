package fines

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shishobooks/shelfkeep/pkg/errcodes"
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

func TestAssessFine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)
	member := newUser(t, db, "m@example.com", models.RoleMember)
	loan := newLoan(t, db, member, "Dune")

	fine := &models.Fine{LoanID: loan.ID, FineAmount: decimal.RequireFromString("123.45")}
	require.NoError(t, svc.AssessFine(ctx, fine))
	assert.Equal(t, member.ID, fine.MemberID)
	assert.Equal(t, models.FineStatusUnpaid, fine.Status)
	assert.True(t, fine.FineDate.Equal(models.Today()))

	got, err := svc.RetrieveFine(ctx, RetrieveFineOptions{ID: &fine.ID, MemberID: &member.ID})
	require.NoError(t, err)
	assert.Equal(t, "123.45", got.FineAmount.StringFixed(2))
	require.NotNil(t, got.Loan)
	assert.Equal(t, "Dune", got.Loan.Book.Title)
}

func TestAssessFine_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)
	member := newUser(t, db, "m@example.com", models.RoleMember)
	loan := newLoan(t, db, member, "Dune")

	var errResp *errcodes.Error

	err := svc.AssessFine(ctx, &models.Fine{LoanID: 999, FineAmount: decimal.NewFromInt(1)})
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, "Loan does not exist", errResp.Message)

	err = svc.AssessFine(ctx, &models.Fine{LoanID: loan.ID, FineAmount: decimal.NewFromInt(-1)})
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, 422, errResp.HTTPCode)
}

func TestRetrieveFine_OtherMember(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)
	alice := newUser(t, db, "alice@example.com", models.RoleMember)
	bob := newUser(t, db, "bob@example.com", models.RoleMember)

	fine := &models.Fine{LoanID: newLoan(t, db, alice, "Dune").ID, FineAmount: decimal.NewFromInt(5)}
	require.NoError(t, svc.AssessFine(ctx, fine))

	_, err := svc.RetrieveFine(ctx, RetrieveFineOptions{ID: &fine.ID, MemberID: &bob.ID})
	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, 404, errResp.HTTPCode)
}

func TestUnpaidTotal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db)
	member := newUser(t, db, "m@example.com", models.RoleMember)
	loan := newLoan(t, db, member, "Dune")

	total, err := svc.UnpaidTotal(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	for _, amount := range []string{"0.10", "0.20", "99.99"} {
		require.NoError(t, svc.AssessFine(ctx, &models.Fine{LoanID: loan.ID, FineAmount: decimal.RequireFromString(amount)}))
	}
	paid := &models.Fine{LoanID: loan.ID, FineAmount: decimal.NewFromInt(50)}
	require.NoError(t, svc.AssessFine(ctx, paid))
	_, err = db.NewUpdate().Model(paid).Set("status = ?", models.FineStatusPaid).WherePK().Exec(ctx)
	require.NoError(t, err)

	total, err = svc.UnpaidTotal(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.29", total.StringFixed(2))

	unpaid := models.FineStatusUnpaid
	fines, count, err := svc.ListFinesWithTotal(ctx, ListFinesOptions{MemberID: &member.ID, Status: &unpaid})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, fines, 3)
}
