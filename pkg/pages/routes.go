package pages

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/books"
	"github.com/shishobooks/shelfkeep/pkg/categories"
	"github.com/shishobooks/shelfkeep/pkg/dashboard"
	"github.com/uptrace/bun"
)

// RegisterRoutes serves the server-rendered pages. The home page answers
// with the member summary when a session is present.
func RegisterRoutes(e *echo.Echo, db *bun.DB, dashboardService *dashboard.Service, authMiddleware *auth.Middleware) {
	h := &handler{
		bookService:     books.NewService(db),
		categoryService: categories.NewService(db),
		memberDashboard: dashboardService.MemberHandler(),
	}

	e.GET("/", h.home, authMiddleware.AuthenticateOptional)
	e.GET("/books_list", h.booksList)
	e.GET("/login", h.loginForm)
	e.GET("/register", h.registerForm)
}
