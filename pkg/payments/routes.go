package payments

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/events"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

type RouteOptions struct {
	Gateway   Gateway
	Publisher events.Publisher
	Currency  string
	// RateLimit caps initiations and callbacks per client IP per second.
	RateLimit float64
}

// RegisterRoutes wires the fine payment bridge. Initiation and callbacks
// require a session; the confirmation page is public.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware, opts RouteOptions) *Service {
	paymentService := NewService(db, opts.Gateway, opts.Publisher, opts.Currency)

	h := &handler{
		paymentService: paymentService,
	}

	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(opts.RateLimit)))

	e.POST("/fines/pay/:fine_id", h.initiate, authMiddleware.Authenticate, limiter)
	e.POST("/fines/payment-success", h.complete, authMiddleware.Authenticate, limiter)
	e.GET("/fines/payment-success", h.success)

	return paymentService
}
