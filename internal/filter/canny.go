package filter

import (
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/image-views/internal/raster"
)

// Default hysteresis thresholds for CannyEdges, on the [0, 1] gradient scale.
const (
	DefaultCannyLow  = 50.0 / 255.0
	DefaultCannyHigh = 150.0 / 255.0
)

// cannyBlurRadius is passed to blur.Gaussian. bild centers its kernel on the
// radius, so it must be a whole number to stay symmetric (5 taps here).
const cannyBlurRadius = 2.0

// CannyEdges performs Canny-style edge detection on img.
//
// The result has the size of img with every channel set to 1 on edge pixels
// and 0 elsewhere.
//
// # Algorithm
//
//  1. Luminance from effect.Grayscale
//  2. Gaussian blur with a 5 tap separable kernel to reduce noise
//  3. Sobel gradients, magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//  4. Non-maximum suppression along the gradient direction
//  5. Hysteresis: magnitudes >= high are edges; magnitudes >= low are edges
//     only when a strong edge is among their eight neighbors
//
// Border pixels are never edges since suppression needs a full neighborhood.
func CannyEdges(img *raster.Image, low, high float64) *raster.Image {
	width := img.Width()
	height := img.Height()

	blurred := cannyLuminance(img)

	magnitude := make([][]float64, height)
	direction := make([][]float64, height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clampIndex(y+ky, 0, height-1)
					px := clampIndex(x+kx, 0, width-1)
					gx += blurred[py][px] * sobelX[ky+1][kx+1]
					gy += blurred[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			default:
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}

	edge := raster.RGB{R: 1, G: 1, B: 1}
	result := raster.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val >= high {
				result.Pix[y*width+x] = edge
				continue
			}
			if val < low {
				continue
			}
			strong := false
			for ky := -1; ky <= 1 && !strong; ky++ {
				for kx := -1; kx <= 1 && !strong; kx++ {
					py := clampIndex(y+ky, 0, height-1)
					px := clampIndex(x+kx, 0, width-1)
					strong = suppressed[py][px] >= high
				}
			}
			if strong {
				result.Pix[y*width+x] = edge
			}
		}
	}
	return result
}

// cannyLuminance returns the smoothed luminance of img as rows indexed
// [y][x] in raster coordinates, on the [0, 1] scale.
func cannyLuminance(img *raster.Image) [][]float64 {
	plane := raster.FromImage(blur.Gaussian(effect.Grayscale(img.ToNRGBA()), cannyBlurRadius))

	width := plane.Width()
	rows := make([][]float64, plane.Height())
	for y := range rows {
		rows[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			rows[y][x] = plane.Pix[y*width+x].R
		}
	}
	return rows
}

// clampIndex constrains an index to [lo, hi] for border replication.
func clampIndex(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
