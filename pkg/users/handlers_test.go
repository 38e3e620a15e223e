package users

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

func TestHandlerList_FiltersByRole(t *testing.T) {
	t.Parallel()
	h := &handler{userService: NewService(newTestDB(t))}
	createUser(t, h.userService, "admin@example.com", models.RoleAdmin)
	createUser(t, h.userService, "reader@example.com", models.RoleMember)

	c, rr := newTestContext(t, http.MethodGet, "/admin/users?role=member", "")
	require.NoError(t, h.list(c))

	var resp struct {
		Users []*models.User `json:"users"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "reader@example.com", resp.Users[0].Email)

	c, _ = newTestContext(t, http.MethodGet, "/admin/users?role=librarian", "")
	var errResp *errcodes.Error
	require.ErrorAs(t, h.list(c), &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.HTTPCode)
}

func TestHandlerUpdate_ChangesRole(t *testing.T) {
	t.Parallel()
	h := &handler{userService: NewService(newTestDB(t))}
	user := createUser(t, h.userService, "reader@example.com", models.RoleMember)

	c, rr := newTestContext(t, http.MethodPatch, "/admin/users/"+strconv.Itoa(user.ID), `{"role":"author","first_name":" Mary "}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(user.ID))
	require.NoError(t, h.update(c))

	var resp models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Mary", resp.FirstName)
	require.NotNil(t, resp.Role)
	assert.Equal(t, models.RoleAuthor, resp.Role.Name)
}

func TestHandlerDeactivate_RejectsSelf(t *testing.T) {
	t.Parallel()
	h := &handler{userService: NewService(newTestDB(t))}
	admin := createUser(t, h.userService, "admin@example.com", models.RoleAdmin)

	c, _ := newTestContext(t, http.MethodDelete, "/admin/users/"+strconv.Itoa(admin.ID), "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(admin.ID))
	c.Set("user_id", admin.ID)

	var errResp *errcodes.Error
	require.ErrorAs(t, h.deactivate(c), &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.HTTPCode)
}
