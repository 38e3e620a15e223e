package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/authors"
	"github.com/shishobooks/shelfkeep/pkg/avatars"
	"github.com/shishobooks/shelfkeep/pkg/binder"
	"github.com/shishobooks/shelfkeep/pkg/books"
	"github.com/shishobooks/shelfkeep/pkg/categories"
	"github.com/shishobooks/shelfkeep/pkg/config"
	"github.com/shishobooks/shelfkeep/pkg/dashboard"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/events"
	"github.com/shishobooks/shelfkeep/pkg/fines"
	"github.com/shishobooks/shelfkeep/pkg/loans"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/shishobooks/shelfkeep/pkg/pages"
	"github.com/shishobooks/shelfkeep/pkg/payments"
	"github.com/shishobooks/shelfkeep/pkg/reservations"
	"github.com/shishobooks/shelfkeep/pkg/roles"
	"github.com/shishobooks/shelfkeep/pkg/testutils"
	"github.com/shishobooks/shelfkeep/pkg/users"
	"github.com/uptrace/bun"
)

// Dependencies are the collaborators built by the caller and shared with the
// route packages.
type Dependencies struct {
	Gateway     payments.Gateway
	Publisher   events.Publisher
	AvatarStore *avatars.Store
}

func New(cfg *config.Config, db *bun.DB, deps Dependencies) (*http.Server, error) {
	e, err := newEcho(cfg, db, deps)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB, deps Dependencies) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	if deps.AvatarStore == nil {
		deps.AvatarStore = avatars.NewStore(cfg.MediaDir)
	}
	e.Static("/media", deps.AvatarStore.Root())

	// Identity routes and the middleware everything else authenticates with
	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret, deps.AvatarStore, cfg.AuthRateLimit)
	authMiddleware := auth.NewMiddleware(authService)

	admin := e.Group("/admin", authMiddleware.Authenticate)

	registerCatalogRoutes(e, admin, db, deps.AvatarStore, authMiddleware)
	registerCirculationRoutes(e, admin, db, authMiddleware)

	users.RegisterRoutesWithGroup(admin.Group("/users"), db, authMiddleware)
	roles.RegisterRoutesWithGroup(admin.Group("/roles"), db, authMiddleware)

	payments.RegisterRoutes(e, db, authMiddleware, payments.RouteOptions{
		Gateway:   deps.Gateway,
		Publisher: deps.Publisher,
		Currency:  cfg.PaymentCurrency,
		RateLimit: cfg.PaymentRateLimit,
	})

	dashboardService := dashboard.RegisterRoutes(e, admin, db, authMiddleware)
	pages.RegisterRoutes(e, db, dashboardService, authMiddleware)

	configGroup := admin.Group("/config")
	configGroup.Use(authMiddleware.RequirePermission(models.ResourceConfig, models.OperationRead))
	config.RegisterRoutesWithGroup(configGroup, cfg)

	if cfg.IsTest() {
		testutils.RegisterRoutes(e, db)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

// registerCatalogRoutes registers the public catalog reads and their
// management counterparts under /admin.
func registerCatalogRoutes(e *echo.Echo, admin *echo.Group, db *bun.DB, store *avatars.Store, authMiddleware *auth.Middleware) {
	categories.RegisterRoutesWithGroup(e.Group("/categories"), admin.Group("/categories"), db, authMiddleware)
	authors.RegisterRoutesWithGroup(e.Group("/authors"), admin.Group("/authors"), db, authMiddleware)
	books.RegisterRoutesWithGroup(e.Group("/books"), admin.Group("/books"), db, store, authMiddleware)
}

// registerCirculationRoutes registers loans, reservations, and fines. Member
// views only ever return the caller's own records.
func registerCirculationRoutes(e *echo.Echo, admin *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	loans.RegisterRoutesWithGroup(e.Group("/loans", authMiddleware.Authenticate), admin.Group("/loans"), db, authMiddleware)
	fines.RegisterRoutesWithGroup(e.Group("/fines", authMiddleware.Authenticate), admin.Group("/fines"), db, authMiddleware)
	reservations.RegisterRoutes(e, admin.Group("/reservations"), db, authMiddleware)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
