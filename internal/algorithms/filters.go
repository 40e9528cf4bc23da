// Point and neighbourhood filters over RGBA frames
package algorithms

import (
	"realtime-vision-pipeline/internal/core"
)

// Luma weights (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Grayscale replaces R, G and B of every pixel with its rounded luma and
// leaves alpha untouched.
//
// It works in place: buf is consumed and returned. Callers that need the
// original frame must Clone before calling.
func Grayscale(buf core.PixelBuffer) core.PixelBuffer {
	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += core.BytesPerPixel {
		gray := core.ClampByte(lumaR*float64(pix[i]) + lumaG*float64(pix[i+1]) + lumaB*float64(pix[i+2]))
		pix[i] = gray
		pix[i+1] = gray
		pix[i+2] = gray
	}
	return buf
}

// GaussianBlur convolves all four channels with a Gaussian kernel of the
// given radius. Samples outside the frame are clamped to the nearest edge
// pixel. The input is not modified; a new buffer is returned.
func GaussianBlur(buf core.PixelBuffer, radius int) core.PixelBuffer {
	width, height := buf.Width, buf.Height
	out := core.NewPixelBuffer(width, height)
	kernel := BuildGaussianKernel(radius)
	size := len(kernel)
	half := size / 2
	src := buf.Pix

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var r, g, b, a float64

			for ky := 0; ky < size; ky++ {
				py := clampInt(y+ky-half, 0, height-1)
				row := kernel[ky]
				for kx := 0; kx < size; kx++ {
					px := clampInt(x+kx-half, 0, width-1)
					i := (py*width + px) * core.BytesPerPixel
					w := row[kx]

					r += float64(src[i]) * w
					g += float64(src[i+1]) * w
					b += float64(src[i+2]) * w
					a += float64(src[i+3]) * w
				}
			}

			o := out.Offset(x, y)
			out.Pix[o] = core.ClampByte(r)
			out.Pix[o+1] = core.ClampByte(g)
			out.Pix[o+2] = core.ClampByte(b)
			out.Pix[o+3] = core.ClampByte(a)
		}
	}

	return out
}

// Threshold binarizes the luma of a copy of buf: 255 where luma > value,
// 0 otherwise (a pixel exactly at value maps to 0). Alpha is preserved.
func Threshold(buf core.PixelBuffer, value uint8) core.PixelBuffer {
	gray := Grayscale(buf.Clone())
	pix := gray.Pix

	for i := 0; i+3 < len(pix); i += core.BytesPerPixel {
		var v uint8
		if pix[i] > value {
			v = 255
		}
		pix[i] = v
		pix[i+1] = v
		pix[i+2] = v
	}

	return gray
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
