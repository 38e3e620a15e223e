package auth

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/shelfkeep/pkg/avatars"
	"github.com/shishobooks/shelfkeep/pkg/binder"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	return e
}

func newTestContext(t *testing.T, method, path, contentType string, body *bytes.Buffer) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rr := httptest.NewRecorder()
	return newEcho(t).NewContext(req, rr), rr
}

func newTestHandler(t *testing.T) *handler {
	t.Helper()
	return &handler{
		authService: NewService(newTestDB(t), "secret"),
		avatarStore: avatars.NewStore(t.TempDir()),
	}
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == CookieName {
			return cookie
		}
	}
	t.Fatalf("no %s cookie set", CookieName)
	return nil
}

const registerJSON = `{
	"first_name": "Ada",
	"last_name": "Lovelace",
	"email": "Ada@Example.com",
	"gender": "female",
	"password": "correct-horse",
	"password_confirmation": "correct-horse"
}`

func TestHandlerRegister_JSON(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	c, rr := newTestContext(t, http.MethodPost, "/register", echo.MIMEApplicationJSON, bytes.NewBufferString(registerJSON))
	require.NoError(t, h.register(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.Equal(t, models.RoleMember, resp.RoleName)
	assert.Equal(t, avatars.FemaleAvatar, resp.Avatar)

	cookie := sessionCookie(t, rr)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
}

func TestHandlerRegister_PasswordMismatch(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	body := strings.Replace(registerJSON, `"password_confirmation": "correct-horse"`, `"password_confirmation": "nope-nope"`, 1)
	c, _ := newTestContext(t, http.MethodPost, "/register", echo.MIMEApplicationJSON, bytes.NewBufferString(body))

	err := h.register(c)
	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.HTTPCode)
	assert.Contains(t, errResp.Message, "password_confirmation")
}

func TestHandlerRegister_MultipartWithImage(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fields := map[string]string{
		"first_name":            "Alan",
		"last_name":             "Turing",
		"email":                 "alan@example.com",
		"gender":                "male",
		"password":              "enigma-1912",
		"password_confirmation": "enigma-1912",
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("image", "me.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, image.NewRGBA(image.Rect(0, 0, 32, 32))))
	require.NoError(t, w.Close())

	c, rr := newTestContext(t, http.MethodPost, "/register", w.FormDataContentType(), body)
	require.NoError(t, h.register(c))

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Avatar, "avatars/"), resp.Avatar)
	assert.NotEqual(t, avatars.MaleAvatar, resp.Avatar)
}

func TestHandlerLogin(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	_, err := h.authService.Register(context.Background(), registerOpts("ada@example.com"))
	require.NoError(t, err)

	form := url.Values{"email": {"ada@example.com"}, "password": {"correct-horse"}}
	c, rr := newTestContext(t, http.MethodPost, "/login", echo.MIMEApplicationForm, bytes.NewBufferString(form.Encode()))
	require.NoError(t, h.login(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, sessionCookie(t, rr).Value)

	form.Set("password", "wrong-password")
	c, _ = newTestContext(t, http.MethodPost, "/login", echo.MIMEApplicationForm, bytes.NewBufferString(form.Encode()))
	var errResp *errcodes.Error
	require.ErrorAs(t, h.login(c), &errResp)
	assert.Equal(t, http.StatusUnauthorized, errResp.HTTPCode)
}

func TestHandlerLogout_ClearsCookie(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	c, rr := newTestContext(t, http.MethodPost, "/logout", echo.MIMEApplicationJSON, &bytes.Buffer{})
	require.NoError(t, h.logout(c))
	assert.Equal(t, -1, sessionCookie(t, rr).MaxAge)
}

func TestHandlerEmailCheck(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	_, err := h.authService.Register(context.Background(), registerOpts("ada@example.com"))
	require.NoError(t, err)

	check := func(email string) string {
		form := url.Values{"search_email": {email}}
		c, rr := newTestContext(t, http.MethodPost, "/email-check", echo.MIMEApplicationForm, bytes.NewBufferString(form.Encode()))
		require.NoError(t, h.emailCheck(c))
		return rr.Body.String()
	}

	assert.Equal(t, "<span style='color: red;'>ada@example.com already exists</span>", check("ada@example.com"))
	assert.Equal(t, "<span style='color: green;'>grace@example.com available</span>", check("grace@example.com"))
	assert.Equal(t, "<span style='color: green;'>&lt;b&gt;@x.io available</span>", check("<b>@x.io"))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t), "secret")
	m := NewMiddleware(svc)

	user, err := svc.Register(ctx, registerOpts("ada@example.com"))
	require.NoError(t, err)
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	e := newEcho(t)
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/me", ok, m.Authenticate)
	e.GET("/admin/config", ok, m.Authenticate, m.RequirePermission(models.ResourceConfig, models.OperationRead))
	e.GET("/optional", func(c echo.Context) error {
		if _, ok := UserFromContext(c); ok {
			return c.String(http.StatusOK, "user")
		}
		return c.String(http.StatusOK, "anonymous")
	}, m.AuthenticateOptional)

	do := func(path string, withCookie bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if withCookie {
			req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		}
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusUnauthorized, do("/me", false).Code)
	assert.Equal(t, http.StatusNoContent, do("/me", true).Code)
	assert.Equal(t, http.StatusForbidden, do("/admin/config", true).Code)
	assert.Equal(t, "anonymous", do("/optional", false).Body.String())
	assert.Equal(t, "user", do("/optional", true).Body.String())

	// Deactivation revokes an otherwise valid session.
	_, err = svc.db.NewUpdate().Model((*models.User)(nil)).Set("is_active = ?", false).Where("id = ?", user.ID).Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("/me", true).Code)
}
