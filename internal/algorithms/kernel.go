package algorithms

import "math"

// DefaultBlurRadius is the Gaussian radius used by Canny edge detection.
const DefaultBlurRadius = 2

// BuildGaussianKernel returns a (2*radius+1)x(2*radius+1) Gaussian weight
// matrix with sigma = radius/2, normalized so the weights sum to 1.
// Radius 0 (or negative) yields the 1x1 identity kernel.
func BuildGaussianKernel(radius int) [][]float64 {
	if radius <= 0 {
		return [][]float64{{1}}
	}

	size := radius*2 + 1
	sigma := float64(radius) / 2
	twoSigmaSq := 2 * sigma * sigma

	kernel := make([][]float64, size)
	sum := 0.0
	for y := 0; y < size; y++ {
		kernel[y] = make([]float64, size)
		dy := float64(y - radius)
		for x := 0; x < size; x++ {
			dx := float64(x - radius)
			w := math.Exp(-(dx*dx + dy*dy) / twoSigmaSq)
			kernel[y][x] = w
			sum += w
		}
	}

	for y := range kernel {
		for x := range kernel[y] {
			kernel[y][x] /= sum
		}
	}
	return kernel
}
