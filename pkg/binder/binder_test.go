package binder

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Hello string `json:"hello" mod:"trim" validate:"max=9"`
	Omit  string `json:"-"`
}

type callbackParams struct {
	OrderID string `form:"razorpay_order_id" json:"razorpay_order_id" validate:"required"`
	FineID  int    `form:"fine_id" json:"fine_id" validate:"required,min=1"`
}

type moneyParams struct {
	Amount string `json:"amount" validate:"required,money"`
}

type uploadParams struct {
	Email     string                           `form:"email" json:"email" mod:"trim,lcase" validate:"required,email"`
	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}

var (
	goodJSON             = `{"hello":" world "}`
	unknownFieldsErrJSON = `{"hello":"world","foo":"bar"}`
	typeErrJSON          = `{"hello":123}`
	validationErrJSON    = `{"hello":"0123456789"}`
)

func TestNew(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	assert.NotNil(t, b)

	t.Run("only allows json and form payloads", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"hello" should be of type string`)
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Hello)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})

	t.Run("binds url encoded forms", func(tt *testing.T) {
		c := newContext("razorpay_order_id=order_123&fine_id=7", echo.MIMEApplicationForm)
		p := callbackParams{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "order_123", p.OrderID)
		assert.Equal(tt, 7, p.FineID)
	})

	t.Run("validates money amounts", func(tt *testing.T) {
		for _, amount := range []string{"10", "10.5", "123.45", "0.00"} {
			c := newContext(`{"amount":"`+amount+`"}`, echo.MIMEApplicationJSON)
			require.NoError(tt, b.Bind(&moneyParams{}, c), amount)
		}
		for _, amount := range []string{"-1", "1.234", "abc"} {
			c := newContext(`{"amount":"`+amount+`"}`, echo.MIMEApplicationJSON)
			err := b.Bind(&moneyParams{}, c)
			require.Error(tt, err, amount)
			assert.Contains(tt, err.Error(), "at most 2 decimal places")
		}
	})

	t.Run("collects multipart files", func(tt *testing.T) {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		require.NoError(tt, w.WriteField("email", "  Reader@Example.com "))
		fw, err := w.CreateFormFile("image", "avatar.png")
		require.NoError(tt, err)
		_, err = fw.Write([]byte("not really a png"))
		require.NoError(tt, err)
		require.NoError(tt, w.Close())

		c := newContext(body.String(), w.FormDataContentType())
		p := uploadParams{}
		require.NoError(tt, b.Bind(&p, c))
		assert.Equal(tt, "reader@example.com", p.Email)
		require.Contains(tt, p.FormFiles, "image")
		assert.Equal(tt, "avatar.png", p.FormFiles["image"].Filename)
	})
}

func newContext(payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, mime)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
