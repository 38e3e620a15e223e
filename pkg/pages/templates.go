package pages

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
)

const baseTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s | Shelfkeep</title>
  <style>
    body { font-family: sans-serif; margin: 0 auto; max-width: 760px; padding: 8px 16px; }
    a { color: #1a4d8f; }
    .nav { margin: 16px 0; }
    .nav-btn { display: inline-block; padding: 8px 14px; margin: 2px; border: 1px solid #1a4d8f; border-radius: 4px; text-decoration: none; }
    .item { display: flex; gap: 12px; padding: 12px 0; border-bottom: 1px solid #ddd; text-decoration: none; color: inherit; }
    .item img { width: 60px; height: auto; }
    .item-title { font-size: 1.1em; font-weight: bold; }
    .item-meta { font-size: 0.9em; color: #666; }
    .notice { padding: 16px; border: 1px solid #2e7d32; background: #edf7ed; border-radius: 4px; }
    form.search { display: flex; gap: 8px; margin: 16px 0; }
    form.search input[type=text] { flex: 1; padding: 8px; }
  </style>
</head>
<body>
  %s
</body>
</html>`

// RenderPage wraps content in the site layout.
func RenderPage(title, content string) string {
	return fmt.Sprintf(baseTemplate, html.EscapeString(title), content)
}

// NavBar links back to the home page and the catalog.
func NavBar() string {
	return `<div class="nav"><a href="/" class="nav-btn">Home</a> <a href="/books_list/" class="nav-btn">Catalog</a></div>`
}

// pagination renders previous and next links that keep the active filters.
func pagination(currentPage, totalPages int, baseURL string, params url.Values) string {
	if totalPages <= 1 {
		return ""
	}

	buildURL := func(page int) string {
		q := url.Values{}
		for k, v := range params {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		return baseURL + "?" + q.Encode()
	}

	var parts []string
	if currentPage > 1 {
		parts = append(parts, fmt.Sprintf(`<a href="%s" class="nav-btn">&larr; Prev</a>`, html.EscapeString(buildURL(currentPage-1))))
	}
	parts = append(parts, fmt.Sprintf("Page %d of %d", currentPage, totalPages))
	if currentPage < totalPages {
		parts = append(parts, fmt.Sprintf(`<a href="%s" class="nav-btn">Next &rarr;</a>`, html.EscapeString(buildURL(currentPage+1))))
	}

	return fmt.Sprintf(`<div class="nav">%s</div>`, strings.Join(parts, " "))
}

func itemHTML(title, link, meta, coverURL string) string {
	cover := ""
	if coverURL != "" {
		cover = fmt.Sprintf(`<img src="%s" alt="">`, html.EscapeString(coverURL))
	}
	return fmt.Sprintf(`<a href="%s" class="item">%s
  <div>
    <div class="item-title">%s</div>
    <div class="item-meta">%s</div>
  </div>
</a>`, html.EscapeString(link), cover, html.EscapeString(title), html.EscapeString(meta))
}

type categoryOption struct {
	ID   int
	Name string
}

func searchForm(actionURL, query string, categories []categoryOption, selected int) string {
	var options strings.Builder
	options.WriteString(`<option value="">All categories</option>`)
	for _, c := range categories {
		sel := ""
		if c.ID == selected {
			sel = " selected"
		}
		fmt.Fprintf(&options, `<option value="%d"%s>%s</option>`, c.ID, sel, html.EscapeString(c.Name))
	}

	return fmt.Sprintf(`<form class="search" action="%s" method="get">
  <input type="text" name="search" value="%s" placeholder="Title or author">
  <select name="category_id">%s</select>
  <input type="submit" value="Search">
</form>`, html.EscapeString(actionURL), html.EscapeString(query), options.String())
}
