package payments

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/shelfkeep/pkg/binder"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, method, target, contentType string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestHandlerInitiate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "25.50")
	h := &handler{paymentService: f.svc}
	fineID := strconv.Itoa(f.fine.ID)

	t.Run("json", func(t *testing.T) {
		c, rr := newTestContext(t, http.MethodPost, "/fines/pay/"+fineID, "", nil)
		c.SetParamNames("fine_id")
		c.SetParamValues(fineID)
		c.Set("user_id", f.alice.ID)

		require.NoError(t, h.initiate(c))
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			OrderID     string `json:"order_id"`
			AmountMinor int64  `json:"amount_minor"`
			KeyID       string `json:"key_id"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "order_test", resp.OrderID)
		assert.Equal(t, int64(2550), resp.AmountMinor)
		assert.Equal(t, "rzp_test_key", resp.KeyID)
	})

	t.Run("html", func(t *testing.T) {
		c, rr := newTestContext(t, http.MethodPost, "/fines/pay/"+fineID, "", nil)
		c.Request().Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")
		c.SetParamNames("fine_id")
		c.SetParamValues(fineID)
		c.Set("user_id", f.alice.ID)

		require.NoError(t, h.initiate(c))
		assert.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, checkoutScriptURL)
		assert.Contains(t, body, `"order_id":"order_test_2"`)
		assert.Contains(t, body, `"amount":2550`)
	})

	t.Run("bad id", func(t *testing.T) {
		c, _ := newTestContext(t, http.MethodPost, "/fines/pay/abc", "", nil)
		c.SetParamNames("fine_id")
		c.SetParamValues("abc")
		c.Set("user_id", f.alice.ID)

		var errResp *errcodes.Error
		require.ErrorAs(t, h.initiate(c), &errResp)
		assert.Equal(t, http.StatusNotFound, errResp.HTTPCode)
	})
}

func TestHandlerComplete(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "25.50")
	h := &handler{paymentService: f.svc}
	f.placeOrder(t)

	form := func(signature string) string {
		return url.Values{
			"razorpay_order_id":   {"order_test"},
			"razorpay_payment_id": {"pay_1"},
			"razorpay_signature":  {signature},
			"fine_id":             {strconv.Itoa(f.fine.ID)},
		}.Encode()
	}

	c, _ := newTestContext(t, http.MethodPost, "/fines/payment-success", echo.MIMEApplicationForm, strings.NewReader(form("deadbeef")))
	c.Set("user_id", f.alice.ID)
	var errResp *errcodes.Error
	require.ErrorAs(t, h.complete(c), &errResp)
	assert.Equal(t, http.StatusBadRequest, errResp.HTTPCode)
	assert.Equal(t, "signature_invalid", errResp.Code)

	c, rr := newTestContext(t, http.MethodPost, "/fines/payment-success", echo.MIMEApplicationForm,
		strings.NewReader(form(Signature(testSecret, "order_test", "pay_1"))))
	c.Set("user_id", f.alice.ID)
	require.NoError(t, h.complete(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp Confirmation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "25.50", resp.Amount)
	assert.Equal(t, "/fines/payment-success/?amount=25.50", resp.RedirectURL)

	c, _ = newTestContext(t, http.MethodPost, "/fines/payment-success", echo.MIMEApplicationJSON,
		strings.NewReader(`{"razorpay_order_id":"order_test"}`))
	c.Set("user_id", f.alice.ID)
	require.ErrorAs(t, h.complete(c), &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.HTTPCode)
}

func TestHandlerSuccess(t *testing.T) {
	t.Parallel()
	h := &handler{}

	c, rr := newTestContext(t, http.MethodGet, "/fines/payment-success?amount=25.50", "", nil)
	require.NoError(t, h.success(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "25.50")

	c, _ = newTestContext(t, http.MethodGet, "/fines/payment-success", "", nil)
	var errResp *errcodes.Error
	require.ErrorAs(t, h.success(c), &errResp)
	assert.Equal(t, http.StatusBadRequest, errResp.HTTPCode)

	c, _ = newTestContext(t, http.MethodGet, "/fines/payment-success?amount=abc", "", nil)
	require.ErrorAs(t, h.success(c), &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.HTTPCode)
}
