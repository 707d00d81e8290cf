package storage

import (
	"context"
	"image"
	_ "image/gif" // accepted on decode, re-encoded as JPEG
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/waritk/go-hero-catalog/pkg/core/domain"
	"github.com/waritk/go-hero-catalog/pkg/ports"
	"golang.org/x/image/draw"
)

const (
	maxDimension = 800
	jpegQuality  = 80
)

// LocalStore keeps images on the local filesystem under dir/builds and
// dir/heroes. Returned paths are slash-separated and relative, suitable for
// serving under /uploads/.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	for _, sub := range []string{"builds", "heroes"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) StoreBuildImage(ctx context.Context, r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", &domain.ValidationError{Msg: "Invalid image file"}
	}

	img = fitWithin(img, maxDimension, maxDimension)

	name := uuid.NewString() + ".jpg"
	out, err := os.Create(filepath.Join(s.dir, "builds", name))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(s.dir, "builds", name)), nil
}

func (s *LocalStore) SaveHeroImage(ctx context.Context, r io.Reader, filename string) (string, error) {
	out, err := os.Create(filepath.Join(s.dir, "heroes", filename))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(s.dir, "heroes", filename)), nil
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	err := os.Remove(filepath.FromSlash(path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// fitWithin scales the image down to fit the bounds, preserving aspect
// ratio. Images already inside the bounds are returned untouched.
func fitWithin(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

var _ ports.ImageStore = (*LocalStore)(nil)
