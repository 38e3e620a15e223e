package loans

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/shelfkeep/pkg/binder"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if payload != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestHandlerCreateAndReturn(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{loanService: NewService(db)}
	member := newUser(t, db, "m@example.com", models.RoleMember)
	book := newBook(t, db, "Dune")

	payload := `{"book_id":` + strconv.Itoa(book.ID) + `,"member_id":` + strconv.Itoa(member.ID) + `,"loan_date":"2024-05-01"}`
	c, rr := newTestContext(t, http.MethodPost, "/admin/loans", payload)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var loan models.Loan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loan))
	assert.Equal(t, "2024-05-01", loan.LoanDate.Format(models.DateLayout))
	require.NotNil(t, loan.Book)
	assert.Equal(t, "Dune", loan.Book.Title)

	// An empty body returns the book today.
	c, rr = newTestContext(t, http.MethodPost, "/admin/loans/"+strconv.Itoa(loan.ID)+"/return", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(loan.ID))
	require.NoError(t, h.markReturned(c))

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loan))
	require.NotNil(t, loan.ReturnedDate)
	assert.True(t, loan.ReturnedDate.Equal(models.Today()))
}

func TestHandlerListOwn_OnlyCallerLoans(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{loanService: NewService(db)}
	alice := newUser(t, db, "alice@example.com", models.RoleMember)
	bob := newUser(t, db, "bob@example.com", models.RoleMember)
	book := newBook(t, db, "Dune")

	require.NoError(t, h.loanService.CreateLoan(t.Context(), &models.Loan{BookID: book.ID, MemberID: bob.ID}))

	c, rr := newTestContext(t, http.MethodGet, "/loans", "")
	c.Set("user_id", alice.ID)
	require.NoError(t, h.listOwn(c))
	assert.JSONEq(t, `{"loans":[],"total":0}`, rr.Body.String())

	c, rr = newTestContext(t, http.MethodGet, "/loans", "")
	c.Set("user_id", bob.ID)
	require.NoError(t, h.listOwn(c))
	assert.Contains(t, rr.Body.String(), `"total":1`)
}
