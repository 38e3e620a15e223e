package pages

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/auth"
	"github.com/shishobooks/shelfkeep/pkg/books"
	"github.com/shishobooks/shelfkeep/pkg/categories"
	"github.com/shishobooks/shelfkeep/pkg/models"
)

const defaultPageSize = 20

type handler struct {
	bookService     *books.Service
	categoryService *categories.Service
	memberDashboard echo.HandlerFunc
}

// home renders the landing page, or the member summary once signed in.
func (h *handler) home(c echo.Context) error {
	if _, ok := auth.UserFromContext(c); ok {
		return h.memberDashboard(c)
	}

	var content strings.Builder
	content.WriteString("<h1>Shelfkeep</h1>")
	content.WriteString("<p>Browse the catalog, reserve books, and pay fines online.</p>")
	content.WriteString(`<div class="nav">
  <a href="/books_list/" class="nav-btn">Browse the catalog</a>
  <a href="/login/" class="nav-btn">Log in</a>
  <a href="/register/" class="nav-btn">Become a member</a>
</div>`)

	return c.HTML(http.StatusOK, RenderPage("Home", content.String()))
}

func (h *handler) booksList(c echo.Context) error {
	ctx := c.Request().Context()

	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	search := strings.TrimSpace(c.QueryParam("search"))

	opts := books.ListBooksOptions{
		Limit:  intPtr(defaultPageSize),
		Offset: intPtr((page - 1) * defaultPageSize),
	}
	params := url.Values{}
	if search != "" {
		opts.Search = &search
		params.Set("search", search)
	}
	var categoryID int
	if id, err := strconv.Atoi(c.QueryParam("category_id")); err == nil && id > 0 {
		categoryID = id
		opts.CategoryID = &categoryID
		params.Set("category_id", strconv.Itoa(id))
	}

	result, total, err := h.bookService.ListBooksWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}
	cats, err := h.categoryService.ListCategories(ctx, categories.ListCategoriesOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	options := make([]categoryOption, len(cats))
	for i, cat := range cats {
		options[i] = categoryOption{cat.ID, cat.Name}
	}

	var content strings.Builder
	content.WriteString(NavBar())
	content.WriteString("<h1>Catalog</h1>")
	content.WriteString(searchForm("/books_list/", search, options, categoryID))

	if len(result) == 0 {
		content.WriteString("<p>No books found.</p>")
	}
	for _, book := range result {
		content.WriteString(itemHTML(book.Title, fmt.Sprintf("/books/%d", book.ID), formatBookMeta(book), coverURL(book)))
	}

	totalPages := (total + defaultPageSize - 1) / defaultPageSize
	content.WriteString(pagination(page, totalPages, "/books_list/", params))

	return c.HTML(http.StatusOK, RenderPage("Catalog", content.String()))
}

func (h *handler) loginForm(c echo.Context) error {
	content := NavBar() + `<h1>Log in</h1>
<form id="login" method="post" action="/login">
  <p><label>Email <input type="email" name="email" required></label></p>
  <p><label>Password <input type="password" name="password" required></label></p>
  <p><input type="submit" value="Log in"></p>
  <p id="login-error" style="color: red;"></p>
</form>` + submitScript("login")

	return c.HTML(http.StatusOK, RenderPage("Log in", content))
}

func (h *handler) registerForm(c echo.Context) error {
	content := NavBar() + `<h1>Become a member</h1>
<form id="register" method="post" action="/register" enctype="multipart/form-data">
  <p><label>First name <input type="text" name="first_name" required></label></p>
  <p><label>Last name <input type="text" name="last_name"></label></p>
  <p><label>Email <input type="email" name="email" id="email" required></label> <span id="email-status"></span></p>
  <p><label>Gender <select name="gender">
    <option value="female">Female</option>
    <option value="male">Male</option>
    <option value="other">Other</option>
  </select></label></p>
  <p><label>Password <input type="password" name="password" minlength="8" required></label></p>
  <p><label>Confirm password <input type="password" name="password_confirmation" minlength="8" required></label></p>
  <p><label>Photo <input type="file" name="image" accept="image/*"></label></p>
  <p><input type="submit" value="Register"></p>
  <p id="register-error" style="color: red;"></p>
</form>
<script>
document.getElementById("email").addEventListener("change", function (e) {
  var body = new URLSearchParams({ search_email: e.target.value });
  fetch("/email-check", { method: "POST", body: body })
    .then(function (r) { return r.text(); })
    .then(function (t) { document.getElementById("email-status").innerHTML = t; });
});
</script>` + submitScript("register")

	return c.HTML(http.StatusOK, RenderPage("Register", content))
}

// submitScript posts the form in the background and goes home on success.
func submitScript(formID string) string {
	return fmt.Sprintf(`<script>
document.getElementById(%[1]q).addEventListener("submit", function (e) {
  e.preventDefault();
  var form = e.target;
  var body = form.enctype === "multipart/form-data" ? new FormData(form) : new URLSearchParams(new FormData(form));
  fetch(form.action, { method: "POST", body: body, credentials: "same-origin" })
    .then(function (r) {
      if (r.ok) { window.location = "/"; return; }
      return r.json().then(function (err) { document.getElementById(%[1]q + "-error").textContent = err.error.message; });
    });
});
</script>`, formID)
}

func formatBookMeta(book *models.Book) string {
	var parts []string
	if names := book.AuthorNames(); len(names) > 0 {
		parts = append(parts, strings.Join(names, ", "))
	}
	if book.Category != nil {
		parts = append(parts, book.Category.Name)
	}
	if !book.PublicationDate.IsZero() {
		parts = append(parts, strconv.Itoa(book.PublicationDate.Year()))
	}
	return strings.Join(parts, " · ")
}

func coverURL(book *models.Book) string {
	if book.CoverImage == nil || *book.CoverImage == "" {
		return ""
	}
	return "/media/" + *book.CoverImage
}

func intPtr(i int) *int {
	return &i
}
