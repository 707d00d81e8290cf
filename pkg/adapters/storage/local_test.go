package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waritk/go-hero-catalog/pkg/core/domain"
)

func pngBytes(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func decodeStored(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(filepath.FromSlash(path))
	require.NoError(t, err)
	defer f.Close()
	img, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return img
}

func TestStoreBuildImageDownscalesLargeImages(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.StoreBuildImage(context.Background(), pngBytes(t, 1200, 600))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".jpg"), "path %q", path)
	assert.Contains(t, path, "/builds/")

	img := decodeStored(t, path)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestStoreBuildImageKeepsSmallImages(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.StoreBuildImage(context.Background(), pngBytes(t, 300, 200))
	require.NoError(t, err)

	img := decodeStored(t, path)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestStoreBuildImageAcceptsJPEG(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 40)), nil))

	path, err := store.StoreBuildImage(context.Background(), &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".jpg"))
}

func TestStoreBuildImageRejectsGarbage(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.StoreBuildImage(context.Background(), strings.NewReader("not an image"))
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Invalid image file", ve.Error())
}

func TestSaveHeroImageCopiesVerbatim(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}
	path, err := store.SaveHeroImage(context.Background(), bytes.NewReader(payload), "role_tank.png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "/heroes/role_tank.png"))

	got, err := os.ReadFile(filepath.FromSlash(path))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.StoreBuildImage(context.Background(), pngBytes(t, 10, 10))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), path))
	_, statErr := os.Stat(filepath.FromSlash(path))
	assert.True(t, os.IsNotExist(statErr))

	// A second delete of the same path is not an error.
	assert.NoError(t, store.Delete(context.Background(), path))
}
