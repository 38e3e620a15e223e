package fines

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
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

func TestHandlerAssess(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	h := &handler{fineService: NewService(db)}
	member := newUser(t, db, "m@example.com", models.RoleMember)
	loan := newLoan(t, db, member, "Dune")

	tests := []struct {
		name    string
		payload string
		code    int
	}{
		{"valid", `{"loan_id":` + strconv.Itoa(loan.ID) + `,"fine_amount":"12.50","fine_date":"2024-02-01"}`, http.StatusCreated},
		{"three decimals", `{"loan_id":` + strconv.Itoa(loan.ID) + `,"fine_amount":"12.505"}`, http.StatusUnprocessableEntity},
		{"negative", `{"loan_id":` + strconv.Itoa(loan.ID) + `,"fine_amount":"-1"}`, http.StatusUnprocessableEntity},
		{"missing amount", `{"loan_id":` + strconv.Itoa(loan.ID) + `}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rr := newTestContext(t, http.MethodPost, "/admin/fines", tt.payload)
			err := h.assess(c)
			if tt.code == http.StatusCreated {
				require.NoError(t, err)
				assert.Equal(t, tt.code, rr.Code)
				assert.Contains(t, rr.Body.String(), `"fine_amount":"12.5"`)
				assert.Contains(t, rr.Body.String(), `"status":"unpaid"`)
				return
			}
			var errResp *errcodes.Error
			require.ErrorAs(t, err, &errResp)
			assert.Equal(t, tt.code, errResp.HTTPCode)
		})
	}
}
