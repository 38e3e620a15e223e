package books

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/shelfkeep/pkg/avatars"
	"github.com/shishobooks/shelfkeep/pkg/binder"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, method, path, contentType string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

type bookJSON struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	CoverImage  *string  `json:"cover_image"`
	AuthorNames []string `json:"author_names"`
}

func TestHandlerCreate(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	f := seed(t, db)
	h := &handler{bookService: NewService(db), imageStore: avatars.NewStore(t.TempDir())}

	payload := `{"title":"Parable of the Sower","category_id":` + strconv.Itoa(f.fiction.ID) +
		`,"publication_date":"1993-10-01","copies_owned":2,"author_ids":[` + strconv.Itoa(f.butler.ID) + `]}`
	c, rr := newTestContext(t, http.MethodPost, "/admin/books", echo.MIMEApplicationJSON, strings.NewReader(payload))
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp bookJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Parable of the Sower", resp.Title)
	assert.Equal(t, []string{"Octavia Butler"}, resp.AuthorNames)

	c, _ = newTestContext(t, http.MethodPost, "/admin/books", echo.MIMEApplicationJSON,
		strings.NewReader(`{"title":"Bad","category_id":1,"publication_date":"1993-13-01"}`))
	var errResp *errcodes.Error
	require.ErrorAs(t, h.create(c), &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.HTTPCode)
}

func TestHandlerList_RejectsBadDates(t *testing.T) {
	t.Parallel()
	h := &handler{bookService: NewService(newTestDB(t))}

	c, _ := newTestContext(t, http.MethodGet, "/books?published_from=yesterday", "", nil)
	var errResp *errcodes.Error
	require.ErrorAs(t, h.list(c), &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.HTTPCode)

	c, rr := newTestContext(t, http.MethodGet, "/books?published_from=2000-01-01", "", nil)
	require.NoError(t, h.list(c))
	assert.Contains(t, rr.Body.String(), `"total":0`)
}

func TestHandlerUploadCover(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	f := seed(t, db)
	media := t.TempDir()
	h := &handler{bookService: NewService(db), imageStore: avatars.NewStore(media)}

	book := newBook(t, h.bookService, f)

	img := &bytes.Buffer{}
	require.NoError(t, png.Encode(img, image.NewRGBA(image.Rect(0, 0, 1200, 600))))

	upload := func() bookJSON {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		part, err := w.CreateFormFile("cover", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(img.Bytes())
		require.NoError(t, err)
		require.NoError(t, w.Close())

		c, rr := newTestContext(t, http.MethodPost, "/admin/books/"+strconv.Itoa(book.ID)+"/cover", w.FormDataContentType(), body)
		c.SetParamNames("id")
		c.SetParamValues(strconv.Itoa(book.ID))
		require.NoError(t, h.uploadCover(c))

		var resp bookJSON
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.CoverImage)
		return resp
	}

	first := upload()
	_, err := os.Stat(filepath.Join(media, *first.CoverImage))
	require.NoError(t, err)

	second := upload()
	assert.NotEqual(t, *first.CoverImage, *second.CoverImage)
	_, err = os.Stat(filepath.Join(media, *first.CoverImage))
	assert.True(t, os.IsNotExist(err))

	cfg, err := os.Open(filepath.Join(media, *second.CoverImage))
	require.NoError(t, err)
	defer cfg.Close()
	decoded, _, err := image.DecodeConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 600, decoded.Width)
	assert.Equal(t, 300, decoded.Height)
}

func TestHandlerUploadCover_MissingFile(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	f := seed(t, db)
	h := &handler{bookService: NewService(db), imageStore: avatars.NewStore(t.TempDir())}
	book := newBook(t, h.bookService, f)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.Close())

	c, _ := newTestContext(t, http.MethodPost, "/", w.FormDataContentType(), body)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(book.ID))

	var errResp *errcodes.Error
	require.ErrorAs(t, h.uploadCover(c), &errResp)
	assert.Equal(t, http.StatusBadRequest, errResp.HTTPCode)
}
