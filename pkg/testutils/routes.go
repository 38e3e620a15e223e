// Package testutils provides test-only API endpoints.
// These routes are only registered when ENVIRONMENT=test.
package testutils

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/shelfkeep/pkg/books"
	"github.com/shishobooks/shelfkeep/pkg/categories"
	"github.com/shishobooks/shelfkeep/pkg/fines"
	"github.com/shishobooks/shelfkeep/pkg/loans"
	"github.com/shishobooks/shelfkeep/pkg/users"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers test-only routes.
// These endpoints should ONLY be registered in test environments.
func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	h := &handler{
		db:              db,
		userService:     users.NewService(db),
		categoryService: categories.NewService(db),
		bookService:     books.NewService(db),
		loanService:     loans.NewService(db),
		fineService:     fines.NewService(db),
	}

	test := e.Group("/test")
	test.POST("/users", h.createUser)
	test.POST("/fines", h.createFine)
	test.DELETE("/data", h.deleteAll)
}
