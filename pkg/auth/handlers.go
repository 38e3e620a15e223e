package auth

import (
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/shelfkeep/pkg/avatars"
	"github.com/shishobooks/shelfkeep/pkg/models"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "shelfkeep_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = 7 * 24 * time.Hour // 7 days
)

type handler struct {
	authService *Service
	avatarStore *avatars.Store
}

// buildMeResponse builds a MeResponse from a user model.
func buildMeResponse(user *models.User) MeResponse {
	permissions := make([]string, 0)
	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
		for _, p := range user.Role.Permissions {
			permissions = append(permissions, p.Resource+":"+p.Operation)
		}
	}

	return MeResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Gender:      user.Gender,
		Avatar:      user.Avatar,
		RoleID:      user.RoleID,
		RoleName:    roleName,
		Permissions: permissions,
	}
}

func isSecure(c echo.Context) bool {
	return c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https"
}

func (h *handler) startSession(c echo.Context, user *models.User) error {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   isSecure(c),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// register creates a member account and logs it in.
func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	params := RegisterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	var avatar string
	if fh, ok := params.FormFiles["image"]; ok {
		path, err := h.avatarStore.SaveAvatar(fh)
		if err != nil {
			return err
		}
		avatar = path
	}

	user, err := h.authService.Register(ctx, RegisterOptions{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     params.Email,
		Gender:    params.Gender,
		Password:  params.Password,
		Avatar:    avatar,
	})
	if err != nil {
		if rmErr := h.avatarStore.Remove(avatar); rmErr != nil {
			log.Err(rmErr).Warn("failed to remove orphaned avatar")
		}
		return err
	}

	log.Info("member registered", logger.Data{"user_id": user.ID})

	if err := h.startSession(c, user); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, buildMeResponse(user))
}

// login handles user login.
func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Email, params.Password)
	if err != nil {
		return err
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, buildMeResponse(user))
}

// logout handles user logout.
func (h *handler) logout(c echo.Context) error {
	// Clear cookie by setting MaxAge to -1
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure(c),
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// me returns the current authenticated user's info.
func (h *handler) me(c echo.Context) error {
	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errors.New("user missing from authenticated context")
	}
	return c.JSON(http.StatusOK, buildMeResponse(user))
}

// emailCheck renders a short availability note next to the registration
// form's email input.
func (h *handler) emailCheck(c echo.Context) error {
	ctx := c.Request().Context()

	params := EmailCheckPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.SearchEmail == "" {
		return c.HTML(http.StatusOK, "")
	}

	taken, err := h.authService.EmailTaken(ctx, params.SearchEmail)
	if err != nil {
		return errors.WithStack(err)
	}

	email := html.EscapeString(params.SearchEmail)
	if taken {
		return c.HTML(http.StatusOK, fmt.Sprintf("<span style='color: red;'>%s already exists</span>", email))
	}
	return c.HTML(http.StatusOK, fmt.Sprintf("<span style='color: green;'>%s available</span>", email))
}
