package avatars

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif" // Register GIF decoder

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// MaxUploadSize is the largest image accepted for avatars and covers.
const MaxUploadSize = 5 << 20

const (
	avatarDir  = "avatars"
	coverDir   = "covers"
	avatarEdge = 256
	coverEdge  = 600
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Store writes uploaded images under the media directory. Paths handed back
// are relative to that directory and are served from /media.
type Store struct {
	root string
}

func NewStore(mediaDir string) *Store {
	return &Store{root: mediaDir}
}

// Root returns the directory the store writes to.
func (s *Store) Root() string {
	return s.root
}

// SaveAvatar stores a user's profile image, scaled to fit a 256px square.
func (s *Store) SaveAvatar(fh *multipart.FileHeader) (string, error) {
	return s.save(fh, avatarDir, avatarEdge)
}

// SaveCover stores a book cover, scaled to fit a 600px square.
func (s *Store) SaveCover(fh *multipart.FileHeader) (string, error) {
	return s.save(fh, coverDir, coverEdge)
}

// Remove deletes a stored upload. Placeholders and empty paths are ignored.
func (s *Store) Remove(path string) error {
	if path == "" || IsPlaceholder(path) {
		return nil
	}
	err := os.Remove(s.abs(path))
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}

func (s *Store) abs(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func (s *Store) save(fh *multipart.FileHeader, dir string, edge int) (string, error) {
	if fh.Size > MaxUploadSize {
		return "", errcodes.ValidationError("Image must be 5 MB or smaller")
	}

	f, err := fh.Open()
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", errcodes.ValidationError("Image must be a JPEG, PNG, GIF or WebP file")
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", errors.WithStack(err)
	}

	src, _, err := image.Decode(f)
	if err != nil {
		return "", errcodes.ValidationError("Image could not be decoded")
	}
	img := fit(src, edge)

	// PNG keeps transparency, everything else is flattened to JPEG.
	ext := ".jpg"
	if mtype.Is("image/png") {
		ext = ".png"
	}
	rel := dir + "/" + uuid.New().String() + ext

	if err := os.MkdirAll(filepath.Join(s.root, dir), 0755); err != nil {
		return "", errors.WithStack(err)
	}
	out, err := os.Create(s.abs(rel))
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer out.Close()

	if ext == ".png" {
		err = png.Encode(out, img)
	} else {
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		_ = os.Remove(out.Name())
		return "", errors.WithStack(err)
	}

	return rel, nil
}

// fit scales img down so neither side exceeds edge. Smaller images are
// returned untouched.
func fit(img image.Image, edge int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= edge && h <= edge {
		return img
	}
	if w >= h {
		h = max(1, h*edge/w)
		w = edge
	} else {
		w = max(1, w*edge/h)
		h = edge
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// EnsurePlaceholders writes the built-in avatars into the media directory if
// they are missing, so a fresh install serves something for every user.
func (s *Store) EnsurePlaceholders() error {
	placeholders := map[string]color.RGBA{
		MaleAvatar:    {R: 0x4a, G: 0x7b, B: 0xd0, A: 0xff},
		FemaleAvatar:  {R: 0xd0, G: 0x4a, B: 0x8b, A: 0xff},
		GenericAvatar: {R: 0x88, G: 0x88, B: 0x88, A: 0xff},
	}
	for path, fill := range placeholders {
		dest := s.abs(path)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.WithStack(err)
		}
		if err := writePlaceholder(dest, fill); err != nil {
			return err
		}
	}
	return nil
}

func writePlaceholder(dest string, fill color.RGBA) error {
	img := image.NewRGBA(image.Rect(0, 0, avatarEdge, avatarEdge))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	f, err := os.Create(dest)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	return errors.WithStack(png.Encode(f, img))
}

// ContentTypeFor guesses a response content type from a stored path.
func ContentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
