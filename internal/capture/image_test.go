package capture

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func checker(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: uint8(x * 10), B: uint8(y * 10), A: 255})
		}
	}
	return img
}

func writeImage(t *testing.T, name string, encode func(io.Writer) error) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, encode(f))
	require.NoError(t, f.Close())
	return path
}

func TestOpenImagePNG(t *testing.T) {
	src := checker(5, 3)
	path := writeImage(t, "frame.png", func(w io.Writer) error { return png.Encode(w, src) })

	s, err := OpenImage(path, 1280, 720, quietLogger())
	require.NoError(t, err)

	frame, ok, err := s.Frame()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, frame.Width)
	assert.Equal(t, 3, frame.Height)
	assert.Equal(t, src.Pix, frame.Pix)

	w, h := s.Resolution()
	assert.Equal(t, 5, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, path, s.Path())
	assert.NoError(t, s.Close())
}

func TestOpenImageBMP(t *testing.T) {
	src := checker(4, 4)
	path := writeImage(t, "frame.BMP", func(w io.Writer) error { return bmp.Encode(w, src) })

	s, err := OpenImage(path, 0, 0, quietLogger())
	require.NoError(t, err)

	frame, _, err := s.Frame()
	require.NoError(t, err)
	assert.Equal(t, src.Pix, frame.Pix)
}

func TestOpenImageFitsWithinLimits(t *testing.T) {
	path := writeImage(t, "wide.png", func(w io.Writer) error { return png.Encode(w, checker(40, 20)) })

	s, err := OpenImage(path, 10, 10, quietLogger())
	require.NoError(t, err)

	w, h := s.Resolution()
	assert.Equal(t, 10, w)
	assert.Equal(t, 5, h)

	frame, _, err := s.Frame()
	require.NoError(t, err)
	require.NoError(t, frame.Validate())
}

func TestImageFramesAreIndependent(t *testing.T) {
	path := writeImage(t, "frame.png", func(w io.Writer) error { return png.Encode(w, checker(2, 2)) })
	s, err := OpenImage(path, 0, 0, quietLogger())
	require.NoError(t, err)

	first, _, _ := s.Frame()
	first.Fill(1, 2, 3, 4)
	second, _, _ := s.Frame()

	assert.NotEqual(t, first.Pix, second.Pix)
}

func TestOpenImageErrors(t *testing.T) {
	_, err := OpenImage("/no/such/frame.png", 0, 0, quietLogger())
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = OpenImage("notes.txt", 0, 0, quietLogger())
	assert.ErrorContains(t, err, "unsupported image format")

	corrupt := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a png"), 0o644))
	_, err = OpenImage(corrupt, 0, 0, quietLogger())
	assert.ErrorContains(t, err, "failed to decode")
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	assert.Contains(t, formats, ".png")
	assert.Contains(t, formats, ".webp")
	assert.Contains(t, formats, ".tga")

	formats[0] = ".exe"
	assert.False(t, isSupportedImageFormat("x.exe"))
	assert.True(t, isSupportedImageFormat("dir.v2/x.JPEG"))
}
