// Package capture provides frame sources for the pipeline.
package capture

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ftrvxmtrx/tga"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"realtime-vision-pipeline/internal/core"
)

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp", ".tga"}

// SupportedFormats lists the file extensions ImageSource accepts.
func SupportedFormats() []string {
	out := make([]string, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}

func isSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// ImageSource serves one still image as an endless stream of frames.
type ImageSource struct {
	path  string
	frame core.PixelBuffer
}

// OpenImage decodes path and scales it down, preserving aspect ratio, to
// fit within maxWidth x maxHeight. Non-positive limits disable scaling.
func OpenImage(path string, maxWidth, maxHeight int, logger logrus.FieldLogger) (*ImageSource, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithField("filepath", path).Debug("CAPTURE: Loading image")

	if !isSupportedImageFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	frame := core.FromImage(fitWithin(img, maxWidth, maxHeight))
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"filepath":    path,
		"format":      format,
		"source_size": fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"width":       frame.Width,
		"height":      frame.Height,
	}).Info("CAPTURE: Image loaded successfully")

	return &ImageSource{path: path, frame: frame}, nil
}

// fitWithin returns img unchanged when it already fits, otherwise a
// Catmull-Rom downscale.
func fitWithin(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth <= 0 || maxHeight <= 0 || (w <= maxWidth && h <= maxHeight) {
		return img
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Frame returns a fresh copy of the image; callers own it.
func (s *ImageSource) Frame() (core.PixelBuffer, bool, error) {
	return s.frame.Clone(), true, nil
}

// Resolution reports the served frame size.
func (s *ImageSource) Resolution() (int, int) {
	return s.frame.Width, s.frame.Height
}

func (s *ImageSource) Path() string {
	return s.path
}

func (s *ImageSource) Close() error {
	return nil
}
