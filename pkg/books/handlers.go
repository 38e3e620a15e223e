package books

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/shelfkeep/pkg/avatars"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/models"
)

type handler struct {
	bookService *Service
	imageStore  *avatars.Store
}

// bookResponse flattens author names for catalog clients.
type bookResponse struct {
	*models.Book
	AuthorNames []string `json:"author_names"`
}

func newBookResponse(book *models.Book) bookResponse {
	return bookResponse{book, book.AuthorNames()}
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := models.ParseDate(value)
	if err != nil {
		return nil, errcodes.ValidationError(strconv.Quote(field) + " should be in the format of YYYY-MM-DD")
	}
	return &t, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	from, err := parseOptionalDate("published_from", params.PublishedFrom)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate("published_to", params.PublishedTo)
	if err != nil {
		return err
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Search:        params.Search,
		CategoryID:    params.CategoryID,
		AuthorID:      params.AuthorID,
		PublishedFrom: from,
		PublishedTo:   to,
		Limit:         &params.Limit,
		Offset:        &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := make([]bookResponse, len(books))
	for i, b := range books {
		resp[i] = newBookResponse(b)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"books": resp,
		"total": total,
	}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, newBookResponse(book)))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	published, err := models.ParseDate(params.PublicationDate)
	if err != nil {
		return errcodes.ValidationError(`"publication_date" should be in the format of YYYY-MM-DD`)
	}

	book := &models.Book{
		Title:           params.Title,
		Description:     params.Description,
		CategoryID:      params.CategoryID,
		PublicationDate: published,
		CopiesOwned:     params.CopiesOwned,
	}
	if err := h.bookService.CreateBook(ctx, book, params.AuthorIDs); err != nil {
		return errors.WithStack(err)
	}

	book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, newBookResponse(book)))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateBookOptions{AuthorIDs: params.AuthorIDs}
	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Description != nil {
		book.Description = params.Description
		opts.Columns = append(opts.Columns, "description")
	}
	if params.CategoryID != nil && *params.CategoryID != book.CategoryID {
		book.CategoryID = *params.CategoryID
		opts.Columns = append(opts.Columns, "category_id")
	}
	if params.PublicationDate != nil {
		published, err := models.ParseDate(*params.PublicationDate)
		if err != nil {
			return errcodes.ValidationError(`"publication_date" should be in the format of YYYY-MM-DD`)
		}
		book.PublicationDate = published
		opts.Columns = append(opts.Columns, "publication_date")
	}
	if params.CopiesOwned != nil && *params.CopiesOwned != book.CopiesOwned {
		book.CopiesOwned = *params.CopiesOwned
		opts.Columns = append(opts.Columns, "copies_owned")
	}

	if err := h.bookService.UpdateBook(ctx, book, opts); err != nil {
		return errors.WithStack(err)
	}

	book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, newBookResponse(book)))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	if book.CoverImage != nil {
		if err := h.imageStore.Remove(*book.CoverImage); err != nil {
			logger.FromContext(ctx).Err(err).Warn("failed to remove cover image")
		}
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) uploadCover(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UploadCoverPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	fh, ok := params.FormFiles["cover"]
	if !ok {
		return errcodes.MissingParameter("cover")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	path, err := h.imageStore.SaveCover(fh)
	if err != nil {
		return err
	}

	previous := book.CoverImage
	book.CoverImage = &path
	if err := h.bookService.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"cover_image"}}); err != nil {
		_ = h.imageStore.Remove(path)
		return errors.WithStack(err)
	}

	if previous != nil {
		if err := h.imageStore.Remove(*previous); err != nil {
			log.Err(err).Warn("failed to remove replaced cover image")
		}
	}

	log.Info("cover uploaded", logger.Data{"book_id": id, "path": path})

	return errors.WithStack(c.JSON(http.StatusOK, newBookResponse(book)))
}
