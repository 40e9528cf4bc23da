// Core frame representation shared by every pipeline stage
package core

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
)

// BytesPerPixel is the number of interleaved samples per pixel (R, G, B, A).
const BytesPerPixel = 4

// maxDimension bounds frame sizes accepted from external sources.
const maxDimension = 16384

// ErrInvalidBuffer is returned when a PixelBuffer violates its layout invariant.
var ErrInvalidBuffer = errors.New("core: invalid pixel buffer")

// PixelBuffer holds one frame as row-major, top-to-bottom RGBA8 samples.
//
// A buffer is owned by exactly one stage at a time. Passing it to a transform
// hands it over; callers that still need the original must Clone first.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed buffer (all channels, alpha included, are 0).
func NewPixelBuffer(width, height int) PixelBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*BytesPerPixel),
	}
}

// Stride returns the number of bytes per row.
func (b PixelBuffer) Stride() int {
	return b.Width * BytesPerPixel
}

// Offset returns the index of the R sample of pixel (x, y).
func (b PixelBuffer) Offset(x, y int) int {
	return (y*b.Width + x) * BytesPerPixel
}

// Empty reports whether the buffer holds no pixels.
func (b PixelBuffer) Empty() bool {
	return b.Width == 0 || b.Height == 0
}

// Clone returns a deep copy with its own sample storage.
func (b PixelBuffer) Clone() PixelBuffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Validate checks the dimensions and the samples length invariant.
func (b PixelBuffer) Validate() error {
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidBuffer, b.Width, b.Height)
	}
	if b.Width > maxDimension || b.Height > maxDimension {
		return fmt.Errorf("%w: frame too large: %dx%d (max: %d)", ErrInvalidBuffer, b.Width, b.Height, maxDimension)
	}
	if want := b.Width * b.Height * BytesPerPixel; len(b.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d samples, got %d", ErrInvalidBuffer, b.Width, b.Height, want, len(b.Pix))
	}
	return nil
}

// SameSize reports whether both buffers have identical dimensions.
func (b PixelBuffer) SameSize(other PixelBuffer) bool {
	return b.Width == other.Width && b.Height == other.Height
}

// ToImage wraps the samples in an *image.RGBA without copying.
// The returned image aliases the buffer.
func (b PixelBuffer) ToImage() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Stride(),
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage copies any image into a new PixelBuffer, origin-normalized.
func FromImage(img image.Image) PixelBuffer {
	bounds := img.Bounds()
	buf := NewPixelBuffer(bounds.Dx(), bounds.Dy())
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == buf.Stride() {
		copy(buf.Pix, rgba.Pix[rgba.PixOffset(bounds.Min.X, bounds.Min.Y):])
		return buf
	}
	dst := buf.ToImage()
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return buf
}

// Fill sets every pixel to the given color.
func (b PixelBuffer) Fill(r, g, bl, a uint8) {
	for i := 0; i+3 < len(b.Pix); i += BytesPerPixel {
		b.Pix[i] = r
		b.Pix[i+1] = g
		b.Pix[i+2] = bl
		b.Pix[i+3] = a
	}
}

// Set writes one pixel; out-of-range coordinates are ignored.
func (b PixelBuffer) Set(x, y int, r, g, bl, a uint8) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := b.Offset(x, y)
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = a
}

// At returns the four samples of pixel (x, y).
func (b PixelBuffer) At(x, y int) [4]uint8 {
	i := b.Offset(x, y)
	return [4]uint8{b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]}
}

// ClampByte rounds v to the nearest integer (ties to even) and clamps it to
// [0, 255], the conversion applied whenever a computed sample is stored.
func ClampByte(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
