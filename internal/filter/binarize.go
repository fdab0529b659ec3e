package filter

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/segment"

	"github.com/ironsheep/image-views/internal/raster"
)

// Otsu binarizes img at the luminance level that maximizes the between-class
// variance of its histogram. Pixels at or above the level become white.
func (s *Standard) Otsu(img *raster.Image) (*raster.Image, error) {
	if err := checkInput("otsu", img); err != nil {
		return nil, err
	}
	gray := effect.Grayscale(img.ToNRGBA())
	bins := histogram.NewRGBAHistogram(gray).R.Bins
	level := otsuLevel(bins)
	return raster.FromImage(segment.Threshold(gray, level)), nil
}

// otsuLevel returns the smallest level that starts the upper class of the
// optimal two-class split of a 256-bin histogram.
func otsuLevel(bins []int) uint8 {
	var total, sumAll float64
	for i, n := range bins {
		total += float64(n)
		sumAll += float64(i) * float64(n)
	}
	if total == 0 {
		return 128
	}

	var weightBg, sumBg, bestVar float64
	best := 0
	for t, n := range bins {
		weightBg += float64(n)
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t) * float64(n)
		meanBg := sumBg / weightBg
		meanFg := (sumAll - sumBg) / weightFg
		between := weightBg * weightFg * (meanBg - meanFg) * (meanBg - meanFg)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	if best >= 255 {
		return 255
	}
	return uint8(best + 1)
}

// Ohbuchi binarizes img by ordered dithering its luminance against a 4x4
// Bayer matrix, giving a black and white image whose local density follows
// the source brightness.
func (s *Standard) Ohbuchi(img *raster.Image) (*raster.Image, error) {
	if err := checkInput("ohbuchi", img); err != nil {
		return nil, err
	}
	src := effect.Grayscale(img.ToNRGBA())
	dst := image.NewPaletted(src.Bounds(), color.Palette{color.Black, color.White})
	bayer4.Draw(dst, dst.Bounds(), src, src.Bounds().Min)
	return raster.FromImage(dst), nil
}

// orderedDither is a draw.Drawer that thresholds each pixel against a tiled
// matrix of levels in (0, 1).
type orderedDither struct {
	size   int
	levels []float64
}

// bayer4 is the classic 4x4 Bayer index matrix normalized to (0, 1).
var bayer4 = newOrderedDither(4, []int{
	0, 8, 2, 10,
	12, 4, 14, 6,
	3, 11, 1, 9,
	15, 7, 13, 5,
})

func newOrderedDither(size int, index []int) orderedDither {
	n := float64(size * size)
	levels := make([]float64, len(index))
	for i, v := range index {
		levels[i] = (float64(v) + 0.5) / n
	}
	return orderedDither{size: size, levels: levels}
}

// Draw implements draw.Drawer. The matrix is anchored at r.Min so the pattern
// does not depend on where the destination rectangle sits.
func (d orderedDither) Draw(dst draw.Image, r image.Rectangle, src image.Image, sp image.Point) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			lum := color.GrayModel.Convert(src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)).(color.Gray).Y
			level := d.levels[((y-r.Min.Y)%d.size)*d.size+(x-r.Min.X)%d.size]
			if float64(lum)/255 > level {
				dst.Set(x, y, color.White)
			} else {
				dst.Set(x, y, color.Black)
			}
		}
	}
}

var _ draw.Drawer = orderedDither{}
