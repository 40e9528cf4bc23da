package algorithms

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-vision-pipeline/internal/core"
)

func randomBuffer(t *testing.T, width, height int, seed int64) core.PixelBuffer {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	buf := core.NewPixelBuffer(width, height)
	for i := range buf.Pix {
		buf.Pix[i] = uint8(rng.Intn(256))
	}
	return buf
}

func uniformBuffer(width, height int, r, g, b, a uint8) core.PixelBuffer {
	buf := core.NewPixelBuffer(width, height)
	buf.Fill(r, g, b, a)
	return buf
}

func TestGrayscaleKnownColors(t *testing.T) {
	buf := core.NewPixelBuffer(4, 1)
	buf.Set(0, 0, 255, 0, 0, 255)
	buf.Set(1, 0, 0, 255, 0, 128)
	buf.Set(2, 0, 0, 0, 255, 0)
	buf.Set(3, 0, 200, 200, 200, 7)

	out := Grayscale(buf)

	assert.Equal(t, [4]uint8{76, 76, 76, 255}, out.At(0, 0))
	assert.Equal(t, [4]uint8{150, 150, 150, 128}, out.At(1, 0))
	assert.Equal(t, [4]uint8{29, 29, 29, 0}, out.At(2, 0))
	assert.Equal(t, [4]uint8{200, 200, 200, 7}, out.At(3, 0))
}

func TestGrayscaleLumaProperty(t *testing.T) {
	buf := randomBuffer(t, 17, 9, 42)
	original := buf.Clone()

	out := Grayscale(buf)

	for i := 0; i < len(original.Pix); i += core.BytesPerPixel {
		r, g, b, a := float64(original.Pix[i]), float64(original.Pix[i+1]), float64(original.Pix[i+2]), original.Pix[i+3]
		want := uint8(math.RoundToEven(0.299*r + 0.587*g + 0.114*b))
		require.Equal(t, want, out.Pix[i], "R at sample %d", i)
		require.Equal(t, want, out.Pix[i+1], "G at sample %d", i)
		require.Equal(t, want, out.Pix[i+2], "B at sample %d", i)
		require.Equal(t, a, out.Pix[i+3], "A at sample %d", i)
	}
}

func TestGrayscaleWorksInPlace(t *testing.T) {
	buf := uniformBuffer(2, 2, 255, 0, 0, 255)

	out := Grayscale(buf)

	assert.Same(t, &buf.Pix[0], &out.Pix[0], "grayscale must reuse the consumed buffer")
	assert.Equal(t, uint8(76), buf.Pix[1])
}

func TestThresholdIsStrict(t *testing.T) {
	buf := core.NewPixelBuffer(3, 1)
	buf.Set(0, 0, 128, 128, 128, 255)
	buf.Set(1, 0, 129, 129, 129, 200)
	buf.Set(2, 0, 10, 10, 10, 255)

	out := Threshold(buf, 128)

	assert.Equal(t, [4]uint8{0, 0, 0, 255}, out.At(0, 0))
	assert.Equal(t, [4]uint8{255, 255, 255, 200}, out.At(1, 0))
	assert.Equal(t, [4]uint8{0, 0, 0, 255}, out.At(2, 0))
}

func TestThresholdOutputIsBinaryAndInputUntouched(t *testing.T) {
	buf := randomBuffer(t, 12, 12, 7)
	original := buf.Clone()
	luma := Grayscale(buf.Clone())

	out := Threshold(buf, 100)

	assert.Equal(t, original.Pix, buf.Pix, "threshold must not modify its input")
	for i := 0; i < len(out.Pix); i += core.BytesPerPixel {
		want := uint8(0)
		if luma.Pix[i] > 100 {
			want = 255
		}
		require.Equal(t, want, out.Pix[i])
		require.Equal(t, want, out.Pix[i+1])
		require.Equal(t, want, out.Pix[i+2])
		require.Equal(t, original.Pix[i+3], out.Pix[i+3])
	}
}

func TestBuildGaussianKernelSumsToOne(t *testing.T) {
	for radius := 0; radius <= 6; radius++ {
		kernel := BuildGaussianKernel(radius)

		size := 2*radius + 1
		require.Len(t, kernel, size, "radius %d", radius)

		sum := 0.0
		for _, row := range kernel {
			require.Len(t, row, size)
			for _, w := range row {
				assert.False(t, math.IsNaN(w))
				sum += w
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "radius %d", radius)
	}
}

func TestBuildGaussianKernelIsSymmetricAndPeaked(t *testing.T) {
	kernel := BuildGaussianKernel(2)

	center := kernel[2][2]
	for y := range kernel {
		for x := range kernel[y] {
			assert.InDelta(t, kernel[y][x], kernel[x][y], 1e-15)
			assert.InDelta(t, kernel[y][x], kernel[4-y][4-x], 1e-15)
			assert.LessOrEqual(t, kernel[y][x], center)
		}
	}
}

func TestBuildGaussianKernelNegativeRadius(t *testing.T) {
	assert.Equal(t, [][]float64{{1}}, BuildGaussianKernel(-3))
}

func TestGaussianBlurPreservesDimensions(t *testing.T) {
	buf := randomBuffer(t, 7, 5, 3)
	original := buf.Clone()

	out := GaussianBlur(buf, DefaultBlurRadius)

	assert.Equal(t, 7, out.Width)
	assert.Equal(t, 5, out.Height)
	require.NoError(t, out.Validate())
	assert.Equal(t, original.Pix, buf.Pix, "blur must allocate a new output")
}

func TestGaussianBlurUniformStaysUniform(t *testing.T) {
	buf := uniformBuffer(6, 4, 120, 30, 200, 255)

	out := GaussianBlur(buf, 3)

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			assert.Equal(t, [4]uint8{120, 30, 200, 255}, out.At(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestGaussianBlurClampsToEdge(t *testing.T) {
	// A single-pixel frame samples only itself.
	buf := uniformBuffer(1, 1, 9, 99, 199, 42)

	out := GaussianBlur(buf, 2)

	assert.Equal(t, [4]uint8{9, 99, 199, 42}, out.At(0, 0))
}

func TestGaussianBlurRadiusZeroIsIdentity(t *testing.T) {
	buf := randomBuffer(t, 5, 5, 11)

	out := GaussianBlur(buf, 0)

	assert.Equal(t, buf.Pix, out.Pix)
}
