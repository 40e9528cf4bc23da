// Gradient and Canny edge detection stages
package algorithms

import (
	"math"

	"realtime-vision-pipeline/internal/core"
)

// Hysteresis classification levels written by DoubleThreshold.
const (
	StrongEdge uint8 = 255
	WeakEdge   uint8 = 75
)

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// GradientField is the Sobel output: magnitude broadcast into R=G=B with
// A=255, and one gradient angle per pixel in (-Pi, Pi].
type GradientField struct {
	Magnitude core.PixelBuffer
	Direction []float32
}

// Sobel computes the gradient of the luma of a copy of buf. Only interior
// pixels are evaluated; the outer one-pixel ring of both outputs stays zero.
func Sobel(buf core.PixelBuffer) GradientField {
	width, height := buf.Width, buf.Height
	gray := Grayscale(buf.Clone())

	magnitude := core.NewPixelBuffer(width, height)
	direction := make([]float32, width*height)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			var gx, gy float64

			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					p := float64(gray.Pix[gray.Offset(x+kx, y+ky)])
					gx += p * sobelX[ky+1][kx+1]
					gy += p * sobelY[ky+1][kx+1]
				}
			}

			mag := core.ClampByte(math.Sqrt(gx*gx + gy*gy))
			o := magnitude.Offset(x, y)
			magnitude.Pix[o] = mag
			magnitude.Pix[o+1] = mag
			magnitude.Pix[o+2] = mag
			magnitude.Pix[o+3] = 255
			direction[y*width+x] = float32(math.Atan2(gy, gx))
		}
	}

	return GradientField{Magnitude: magnitude, Direction: direction}
}

// suppressionStep maps a gradient angle onto the neighbour offset examined
// by non-maximum suppression. Bins are chosen on |angle| at Pi/8, 3Pi/8,
// 5Pi/8 and 7Pi/8; the sign of the angle picks the diagonal.
func suppressionStep(angle float64) (dx, dy int) {
	abs := math.Abs(angle)

	switch {
	case abs < math.Pi/8 || abs >= 7*math.Pi/8:
		return 1, 0
	case abs < 3*math.Pi/8:
		if angle > 0 {
			return 1, 1
		}
		return 1, -1
	case abs < 5*math.Pi/8:
		return 0, 1
	default:
		if angle > 0 {
			return 1, -1
		}
		return 1, 1
	}
}

// NonMaxSuppression thins a gradient magnitude image: an interior pixel keeps
// its magnitude only when it is >= both neighbours along its gradient
// direction. Ties keep the pixel. Border pixels stay zero.
func NonMaxSuppression(magnitude core.PixelBuffer, direction []float32) core.PixelBuffer {
	width, height := magnitude.Width, magnitude.Height
	out := core.NewPixelBuffer(width, height)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			idx := y*width + x
			mag := magnitude.Pix[idx*core.BytesPerPixel]
			dx, dy := suppressionStep(float64(direction[idx]))

			m1 := magnitude.Pix[magnitude.Offset(x+dx, y+dy)]
			m2 := magnitude.Pix[magnitude.Offset(x-dx, y-dy)]

			var v uint8
			if mag >= m1 && mag >= m2 {
				v = mag
			}
			o := idx * core.BytesPerPixel
			out.Pix[o] = v
			out.Pix[o+1] = v
			out.Pix[o+2] = v
			out.Pix[o+3] = 255
		}
	}

	return out
}

// DoubleThreshold classifies every pixel by its R sample into StrongEdge
// (>= high), WeakEdge (>= low) or 0, then runs a single raster-order
// hysteresis pass over interior pixels: a weak pixel becomes strong when one
// of its 8 neighbours is strong at the time it is visited, otherwise it is
// dropped to 0.
//
// The pass is not iterative. Weak chains are only followed forward in scan
// order; a weak pixel visited before its weak neighbour gets promoted is lost.
// Weak pixels on the border ring are not visited and keep WeakEdge.
func DoubleThreshold(buf core.PixelBuffer, low, high uint8) core.PixelBuffer {
	width, height := buf.Width, buf.Height
	out := core.NewPixelBuffer(width, height)
	src, dst := buf.Pix, out.Pix

	for i := 0; i+3 < len(src); i += core.BytesPerPixel {
		var v uint8
		switch p := src[i]; {
		case p >= high:
			v = StrongEdge
		case p >= low:
			v = WeakEdge
		}
		dst[i] = v
		dst[i+1] = v
		dst[i+2] = v
		dst[i+3] = 255
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			o := out.Offset(x, y)
			if dst[o] != WeakEdge {
				continue
			}

			v := uint8(0)
			if hasStrongNeighbour(out, x, y) {
				v = StrongEdge
			}
			dst[o] = v
			dst[o+1] = v
			dst[o+2] = v
		}
	}

	return out
}

func hasStrongNeighbour(buf core.PixelBuffer, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if buf.Pix[buf.Offset(x+dx, y+dy)] == StrongEdge {
				return true
			}
		}
	}
	return false
}

// CannyEdgeDetection runs blur, Sobel, non-maximum suppression and double
// threshold in that order. low < high is not checked.
func CannyEdgeDetection(buf core.PixelBuffer, low, high uint8) core.PixelBuffer {
	blurred := GaussianBlur(buf, DefaultBlurRadius)
	gradient := Sobel(blurred)
	suppressed := NonMaxSuppression(gradient.Magnitude, gradient.Direction)
	return DoubleThreshold(suppressed, low, high)
}
