package errcodes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		StatusCode int    `json:"status_code"`
	} `json:"error"`
}

func handle(t *testing.T, err error) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/fines/payment-success", nil)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)

	NewHandler().Handle(err, c)

	body := errorBody{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func TestHandle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"signature", SignatureInvalid(), http.StatusBadRequest, "signature_invalid"},
		{"wrapped not found", errors.WithStack(NotFound("Fine")), http.StatusNotFound, "not_found"},
		{"upstream", UpstreamError("Payment gateway"), http.StatusBadGateway, "upstream_error"},
		{"conflict", Conflict("Fine has already been paid"), http.StatusConflict, "conflict"},
		{"missing parameter", MissingParameter("amount"), http.StatusBadRequest, "missing_parameter"},
		{"echo error", echo.ErrTooManyRequests, http.StatusTooManyRequests, "too_many_requests"},
		{"generic", errors.New("boom"), http.StatusInternalServerError, "internal_server_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, body := handle(t, tc.err)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.Equal(t, tc.status, body.Error.StatusCode)
		})
	}
}

func TestHandle_HidesInternalMessages(t *testing.T) {
	t.Parallel()

	_, body := handle(t, errors.New("sqlite: disk I/O error"))
	assert.Equal(t, "Internal Server Error", body.Error.Message)
}

func TestError_Is(t *testing.T) {
	t.Parallel()

	err := errors.WithStack(NotFound("Fine"))
	assert.True(t, errors.Is(err, NotFound("Fine")))
	assert.False(t, errors.Is(err, NotFound("Book")))
}
