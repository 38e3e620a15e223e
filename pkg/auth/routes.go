package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shishobooks/shelfkeep/pkg/avatars"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// RegisterRoutes registers the identity routes. Credential endpoints share a
// per-IP rate limit of limit requests per second.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string, store *avatars.Store, limit float64) *Service {
	authService := NewService(db, jwtSecret)

	h := &handler{
		authService: authService,
		avatarStore: store,
	}

	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(limit)))

	e.POST("/register", h.register, limiter)
	e.POST("/login", h.login, limiter)
	e.POST("/logout", h.logout)
	e.POST("/email-check", h.emailCheck)
	e.GET("/me", h.me, NewMiddleware(authService).Authenticate)

	return authService
}
